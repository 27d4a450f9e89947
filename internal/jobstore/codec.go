package jobstore

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// fields to hash values. Dependencies/Dependents live in their own sets and
// are not part of this encoding; callers fill them in separately.
func encode(j *types.Job) map[string]string {
	tags, _ := json.Marshal(j.Tags)
	resources, _ := json.Marshal(j.Resources)
	failure, _ := json.Marshal(j.Failure)
	tracked := "0"
	if j.Tracked {
		tracked = "1"
	}
	return map[string]string{
		"jid":              j.Jid,
		"klass":            j.Klass,
		"data":             base64.StdEncoding.EncodeToString(j.Data),
		"priority":         strconv.Itoa(j.Priority),
		"tags":             string(tags),
		"retries":          strconv.Itoa(j.Retries),
		"remaining":        strconv.Itoa(j.Remaining),
		"state":            string(j.State),
		"queue":            j.Queue,
		"worker":           j.Worker,
		"expires":          strconv.FormatInt(j.Expires, 10),
		"failure":          string(failure),
		"resources":        string(resources),
		"spawned_from_jid": j.SpawnedFromJid,
		"tracked":          tracked,
	}
}

func decode(h map[string]string) *types.Job {
	if len(h) == 0 {
		return nil
	}
	j := &types.Job{
		Jid:            h["jid"],
		Klass:          h["klass"],
		Queue:          h["queue"],
		Worker:         h["worker"],
		State:          types.State(h["state"]),
		SpawnedFromJid: h["spawned_from_jid"],
	}
	j.Data, _ = base64.StdEncoding.DecodeString(h["data"])
	j.Priority, _ = strconv.Atoi(h["priority"])
	j.Retries, _ = strconv.Atoi(h["retries"])
	j.Remaining, _ = strconv.Atoi(h["remaining"])
	j.Expires, _ = strconv.ParseInt(h["expires"], 10, 64)
	j.Tracked = h["tracked"] == "1"
	_ = json.Unmarshal([]byte(h["tags"]), &j.Tags)
	_ = json.Unmarshal([]byte(h["resources"]), &j.Resources)
	_ = json.Unmarshal([]byte(h["failure"]), &j.Failure)
	return j
}

// Exists reports whether a job record is present.
func Exists(tx storage.Tx, jid string) (bool, error) {
	_, ok, err := tx.HGet(keys.Job(jid), "jid")
	return ok, err
}

// Get loads a full job record, including history and dependency edges, or
// nil if the job does not exist.
func Get(tx storage.Tx, jid string) (*types.Job, error) {
	h, err := tx.HGetAll(keys.Job(jid))
	if err != nil {
		return nil, err
	}
	j := decode(h)
	if j == nil {
		return nil, nil
	}
	deps, err := tx.SMembers(keys.JobDependencies(jid))
	if err != nil {
		return nil, err
	}
	j.Dependencies = deps
	dependents, err := tx.SMembers(keys.JobDependents(jid))
	if err != nil {
		return nil, err
	}
	j.Dependents = dependents
	hist, err := History(tx, jid)
	if err != nil {
		return nil, err
	}
	j.History = hist
	return j, nil
}

// Put writes the scalar fields of a job record. It does not touch history
// or dependency sets — callers manage those explicitly so put/requeue can
// control exactly what is preserved.
func Put(tx storage.Tx, j *types.Job) error {
	return tx.HSet(keys.Job(j.Jid), encode(j))
}

// Delete removes a job record entirely, including history and dependency sets.
func Delete(tx storage.Tx, jid string) error {
	if err := tx.Del(keys.Job(jid)); err != nil {
		return err
	}
	if err := tx.Del(keys.JobHistory(jid)); err != nil {
		return err
	}
	if err := tx.Del(keys.JobHistorySeq(jid)); err != nil {
		return err
	}
	if err := tx.Del(keys.JobDependencies(jid)); err != nil {
		return err
	}
	return tx.Del(keys.JobDependents(jid))
}
