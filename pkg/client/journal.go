package client

import (
	"context"
	"strconv"
	"time"
)

// JournalOverview is the journal's length and current root hash.
type JournalOverview struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}

// JournalEntry is one link of the invocation journal.
type JournalEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	TxID      string    `json:"tx_id"`
	Contract  string    `json:"contract"`
	Function  string    `json:"function"`
	Invoker   string    `json:"invoker"`
	Outcome   string    `json:"outcome"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// JournalVerification is the result of a full chain walk.
type JournalVerification struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// JournalOverview fetches the journal's length and root hash.
func (c *Client) JournalOverview(ctx context.Context) (*JournalOverview, error) {
	var out JournalOverview
	if err := c.getJSON(ctx, "/api/v1/journal", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyJournal asks ledgerd to verify the whole chain.
func (c *Client) VerifyJournal(ctx context.Context) (*JournalVerification, error) {
	var out JournalVerification
	if err := c.getJSON(ctx, "/api/v1/journal/verify", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJournalEntry fetches the entry at idx.
func (c *Client) GetJournalEntry(ctx context.Context, idx int) (*JournalEntry, error) {
	var out JournalEntry
	if err := c.getJSON(ctx, "/api/v1/journal/entries/"+strconv.Itoa(idx), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
