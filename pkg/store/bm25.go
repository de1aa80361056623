package store

import (
	"database/sql"
	"math"
	"sort"
	"strings"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// tokenize splits text into lowercase words, trimming surrounding
// punctuation and skipping very short tokens — the same shape as the
// teacher's keyword-index tokenizer, just feeding a term-frequency table
// instead of a set.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, term := range tokenize(text) {
		freqs[term]++
	}
	return freqs
}

// SearchResult is one ranked hit from SearchSessionLog.
type SearchResult struct {
	Entry SessionLogEntry
	Score float64
}

// SearchSessionLog ranks an agent's transcript against query using BM25
// (k1=1.2, b=0.75) computed over the session_log_index term-frequency
// table. sessionID narrows the search to one session; an empty sessionID
// searches every session the agent owns (spec.md §4.5's `session?`
// parameter). Every query term is required to appear somewhere in a
// document's terms (the spec's AND-joined tokenizer rule) before it is
// scored and returned.
func (db *DB) SearchSessionLog(agentID, sessionID string, query string, limit int) ([]SearchResult, error) {
	terms := uniqueTerms(tokenize(query))
	if len(terms) == 0 {
		return nil, nil
	}

	docLens, avgDocLen, err := db.documentLengths(agentID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(docLens) == 0 {
		return nil, nil
	}
	n := float64(len(docLens))

	docFreq := make(map[string]int, len(terms))
	termDocFreq := make(map[string]map[int64]int, len(terms)) // term -> log_id -> frequency
	for _, term := range terms {
		var rows *sql.Rows
		var err error
		if sessionID == "" {
			rows, err = db.query(`SELECT log_id, frequency FROM session_log_index WHERE agent_id = ? AND term = ?`, agentID, term)
		} else {
			rows, err = db.query(`SELECT log_id, frequency FROM session_log_index WHERE agent_id = ? AND session_id = ? AND term = ?`, agentID, sessionID, term)
		}
		if err != nil {
			return nil, wrapErr("search_session_log", err)
		}
		perDoc := make(map[int64]int)
		for rows.Next() {
			var logID int64
			var freq int
			if err := rows.Scan(&logID, &freq); err != nil {
				rows.Close()
				return nil, wrapErr("search_session_log", err)
			}
			perDoc[logID] = freq
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, wrapErr("search_session_log", err)
		}
		termDocFreq[term] = perDoc
		docFreq[term] = len(perDoc)
	}

	// A document must contain every query term (AND semantics) to be
	// considered a match at all; candidates are the intersection.
	var candidates map[int64]bool
	for _, term := range terms {
		hits := termDocFreq[term]
		if candidates == nil {
			candidates = make(map[int64]bool, len(hits))
			for logID := range hits {
				candidates[logID] = true
			}
			continue
		}
		for logID := range candidates {
			if _, ok := hits[logID]; !ok {
				delete(candidates, logID)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores := make(map[int64]float64, len(candidates))
	for logID := range candidates {
		var score float64
		docLen := docLens[logID]
		for _, term := range terms {
			f := float64(termDocFreq[term][logID])
			if f == 0 {
				continue
			}
			df := float64(docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			denom := f + bm25K1*(1-bm25B+bm25B*(float64(docLen)/avgDocLen))
			score += idf * (f * (bm25K1 + 1)) / denom
		}
		scores[logID] = score
	}

	logIDs := make([]int64, 0, len(scores))
	for id := range scores {
		logIDs = append(logIDs, id)
	}
	entries, err := db.fetchSessionLogByIDs(logIDs)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, SearchResult{Entry: e, Score: scores[e.ID]})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (db *DB) documentLengths(agentID, sessionID string) (map[int64]int, float64, error) {
	var rows *sql.Rows
	var err error
	if sessionID == "" {
		rows, err = db.query(`SELECT log_id, SUM(frequency) FROM session_log_index WHERE agent_id = ? GROUP BY log_id`, agentID)
	} else {
		rows, err = db.query(`SELECT log_id, SUM(frequency) FROM session_log_index WHERE agent_id = ? AND session_id = ? GROUP BY log_id`, agentID, sessionID)
	}
	if err != nil {
		return nil, 0, wrapErr("document_lengths", err)
	}
	defer rows.Close()

	lens := make(map[int64]int)
	var total int
	for rows.Next() {
		var logID int64
		var length int
		if err := rows.Scan(&logID, &length); err != nil {
			return nil, 0, wrapErr("document_lengths", err)
		}
		lens[logID] = length
		total += length
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("document_lengths", err)
	}
	if len(lens) == 0 {
		return lens, 0, nil
	}
	return lens, float64(total) / float64(len(lens)), nil
}

func (db *DB) fetchSessionLogByIDs(ids []int64) ([]SessionLogEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.query(
		`SELECT id, agent_id, session_id, kind, speaker_id, turn, content, metadata_json, created_at FROM session_log WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, wrapErr("fetch_session_log_by_ids", err)
	}
	defer rows.Close()

	var out []SessionLogEntry
	for rows.Next() {
		var e SessionLogEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.SessionID, &e.Kind, &e.SpeakerID, &e.Turn, &e.Content, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, wrapErr("fetch_session_log_by_ids", err)
		}
		out = append(out, e)
	}
	return out, wrapErr("fetch_session_log_by_ids", rows.Err())
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
