// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Collection names one of the five synchronized record sets. The string
// value is used verbatim as the local table name and as the remote chunk
// path segment, so it must never change.
type Collection string

const (
	Envelopes       Collection = "envelopes"
	Transactions    Collection = "transactions"
	Bills           Collection = "bills"
	Debts           Collection = "debts"
	PaycheckHistory Collection = "paycheck_history"
)

// AllCollections lists the collections in their canonical order. Every
// component that iterates collections uses this order.
var AllCollections = []Collection{Envelopes, Transactions, Bills, Debts, PaycheckHistory}

// Valid reports whether c is one of [AllCollections].
func (c Collection) Valid() bool {
	return slices.Contains(AllCollections, c)
}

// Metadata is the singleton record that travels with every DataCollection.
//
// LastModified is bumped on every local write and is the only value used to
// decide the sync direction when both sides hold data.
type Metadata struct {
	UnassignedCash decimal.Decimal `json:"unassignedCash"`
	ActualBalance  decimal.Decimal `json:"actualBalance"`
	LastModified   time.Time       `json:"lastModified"`
	SyncVersion    string          `json:"syncVersion"`
}

// DataCollection is the unit of synchronization: the full budget dataset.
type DataCollection struct {
	Envelopes       []Envelope       `json:"envelopes"`
	Transactions    []Transaction    `json:"transactions"`
	Bills           []Bill           `json:"bills"`
	Debts           []Debt           `json:"debts"`
	PaycheckHistory []PaycheckRecord `json:"paycheckHistory"`
	Metadata        Metadata         `json:"metadata"`
}

// Counts maps every collection to its record count.
type Counts map[Collection]int

// Total returns the sum over all collections.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Counts returns the number of records per collection. Every collection is
// present in the result, including empty ones.
func (d *DataCollection) Counts() Counts {
	if d == nil {
		return Counts{Envelopes: 0, Transactions: 0, Bills: 0, Debts: 0, PaycheckHistory: 0}
	}
	return Counts{
		Envelopes:       len(d.Envelopes),
		Transactions:    len(d.Transactions),
		Bills:           len(d.Bills),
		Debts:           len(d.Debts),
		PaycheckHistory: len(d.PaycheckHistory),
	}
}

// TotalItems returns the number of records over all five collections.
func (d *DataCollection) TotalItems() int {
	return d.Counts().Total()
}

// IsEmpty reports whether d holds no records. Metadata alone does not count.
func (d *DataCollection) IsEmpty() bool {
	return d.TotalItems() == 0
}

// SortByID orders every collection by record id in place.
func (d *DataCollection) SortByID() {
	sortRecords(d.Envelopes)
	sortRecords(d.Transactions)
	sortRecords(d.Bills)
	sortRecords(d.Debts)
	sortRecords(d.PaycheckHistory)
}

// Fingerprint returns a stable digest of the records (metadata excluded).
// Two collections with equal fingerprints hold the same records.
func (d *DataCollection) Fingerprint() (string, error) {
	h := sha256.New()
	for _, c := range AllCollections {
		raw, err := EncodeCollection(d, c)
		if err != nil {
			return "", err
		}
		sorted := slices.Clone(raw)
		slices.SortFunc(sorted, func(a, b json.RawMessage) int { return strings.Compare(string(a), string(b)) })
		h.Write([]byte(c))
		for _, r := range sorted {
			h.Write(r)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RecordIDs returns the ids of collection c in stored order.
func (d *DataCollection) RecordIDs(c Collection) []string {
	switch c {
	case Envelopes:
		return recordIDs(d.Envelopes)
	case Transactions:
		return recordIDs(d.Transactions)
	case Bills:
		return recordIDs(d.Bills)
	case Debts:
		return recordIDs(d.Debts)
	case PaycheckHistory:
		return recordIDs(d.PaycheckHistory)
	}
	return nil
}

// EncodeCollection marshals every record of collection c separately.
func EncodeCollection(d *DataCollection, c Collection) ([]json.RawMessage, error) {
	switch c {
	case Envelopes:
		return encodeRecords(d.Envelopes)
	case Transactions:
		return encodeRecords(d.Transactions)
	case Bills:
		return encodeRecords(d.Bills)
	case Debts:
		return encodeRecords(d.Debts)
	case PaycheckHistory:
		return encodeRecords(d.PaycheckHistory)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

// DecodeCollection unmarshals raw records into collection c of d, replacing
// whatever the collection held before.
func DecodeCollection(d *DataCollection, c Collection, raw []json.RawMessage) error {
	var err error
	switch c {
	case Envelopes:
		d.Envelopes, err = decodeRecords[Envelope](raw)
	case Transactions:
		d.Transactions, err = decodeRecords[Transaction](raw)
	case Bills:
		d.Bills, err = decodeRecords[Bill](raw)
	case Debts:
		d.Debts, err = decodeRecords[Debt](raw)
	case PaycheckHistory:
		d.PaycheckHistory, err = decodeRecords[PaycheckRecord](raw)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return err
}

// RecordRow is one encoded record plus the fields stores index on.
type RecordRow struct {
	ID       string
	Body     json.RawMessage
	Modified time.Time
}

// EncodeRows marshals collection c into rows ready for storage.
func EncodeRows(d *DataCollection, c Collection) ([]RecordRow, error) {
	switch c {
	case Envelopes:
		return encodeRows(d.Envelopes)
	case Transactions:
		return encodeRows(d.Transactions)
	case Bills:
		return encodeRows(d.Bills)
	case Debts:
		return encodeRows(d.Debts)
	case PaycheckHistory:
		return encodeRows(d.PaycheckHistory)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func encodeRows[T Record](items []T) ([]RecordRow, error) {
	rows := make([]RecordRow, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal record %s: %w", item.RecordID(), err)
		}
		rows = append(rows, RecordRow{ID: item.RecordID(), Body: b, Modified: item.Modified()})
	}
	return rows, nil
}

func encodeRecords[T Record](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal record %s: %w", item.RecordID(), err)
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeRecords[T Record](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("unmarshal record #%d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func sortRecords[T Record](items []T) {
	slices.SortStableFunc(items, func(a, b T) int { return strings.Compare(a.RecordID(), b.RecordID()) })
}

func recordIDs[T Record](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.RecordID())
	}
	return ids
}
