package jobstore

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// History returns a job's history events in chronological order.
func History(tx storage.Tx, jid string) ([]types.HistoryEvent, error) {
	h, err := tx.HGetAll(keys.JobHistory(jid))
	if err != nil {
		return nil, err
	}
	type seqEvent struct {
		seq int64
		ev  types.HistoryEvent
	}
	entries := make([]seqEvent, 0, len(h))
	for k, v := range h {
		seq, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		var ev types.HistoryEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			continue
		}
		entries = append(entries, seqEvent{seq, ev})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]types.HistoryEvent, len(entries))
	for i, e := range entries {
		out[i] = e.ev
	}
	return out, nil
}

// AppendHistory appends a history event and enforces the max-job-history
// cap rule (§3): when capped, the first ever event is always retained and
// the tail is truncated to the most recent maxHistory-1 events.
func AppendHistory(tx storage.Tx, jid string, now int64, what string, data map[string]any, maxHistory int) error {
	seq, err := tx.Incr(keys.JobHistorySeq(jid))
	if err != nil {
		return err
	}
	ev := types.HistoryEvent{What: what, When: now, Data: data}
	buf, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := tx.HSet(keys.JobHistory(jid), map[string]string{strconv.FormatInt(seq, 10): string(buf)}); err != nil {
		return err
	}
	return capHistory(tx, jid, maxHistory)
}

func capHistory(tx storage.Tx, jid string, maxHistory int) error {
	if maxHistory < 1 {
		maxHistory = 1
	}
	h, err := tx.HGetAll(keys.JobHistory(jid))
	if err != nil {
		return err
	}
	if len(h) <= maxHistory {
		return nil
	}
	seqs := make([]int64, 0, len(h))
	for k := range h {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		seqs = append(seqs, n)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	keep := make(map[int64]bool, maxHistory)
	keep[seqs[0]] = true // first event always retained
	tailCount := maxHistory - 1
	for i := len(seqs) - tailCount; i < len(seqs); i++ {
		if i >= 1 { // never re-count index 0, already the retained first event
			keep[seqs[i]] = true
		}
	}

	toDelete := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if !keep[s] {
			toDelete = append(toDelete, strconv.FormatInt(s, 10))
		}
	}
	if len(toDelete) == 0 {
		return nil
	}
	return tx.HDel(keys.JobHistory(jid), toDelete...)
}
