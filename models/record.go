// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyObjectID is returned when a record without an object id is encoded
// or decoded.
var ErrEmptyObjectID = errors.New("record has empty object id")

// SyncableRecord is one logical change of a feature object. Records are
// values: build a new one instead of editing an existing one.
//
// A tombstone (IsDeleted == true) carries no payload, only the object id.
type SyncableRecord struct {
	Feature      Feature
	ObjectID     string
	Payload      Payload
	IsDeleted    bool
	LastModified *time.Time

	// payloadErr is set when the wire payload could not be decoded into the
	// feature's variant. The record is still usable for its id.
	payloadErr error
}

// PayloadErr reports why the payload of a decoded record is missing, if it
// failed to decode.
func (r SyncableRecord) PayloadErr() error {
	return r.payloadErr
}

// NewTombstone builds a deletion marker for the given object.
func NewTombstone(feature Feature, objectID string, at time.Time) SyncableRecord {
	at = at.UTC()
	return SyncableRecord{Feature: feature, ObjectID: objectID, IsDeleted: true, LastModified: &at}
}

// NewUndecodableRecord stands in for a wire entry DecodeRecord rejected, so
// the entry can still be reported instead of vanishing. It keeps the object
// id when the entry carries a string one; PayloadErr returns cause.
func NewUndecodableRecord(feature Feature, b []byte, cause error) SyncableRecord {
	var in struct {
		ID any `json:"id"`
	}
	_ = json.Unmarshal(b, &in)
	id, _ := in.ID.(string)

	return SyncableRecord{
		Feature:    feature,
		ObjectID:   id,
		payloadErr: fmt.Errorf("undecodable entry: %w", cause),
	}
}

// NewerThan reports whether r was modified strictly after t. A record without
// a timestamp is never newer.
func (r SyncableRecord) NewerThan(t *time.Time) bool {
	if r.LastModified == nil {
		return false
	}
	if t == nil {
		return true
	}
	return r.LastModified.After(*t)
}

type recordJSON struct {
	Feature      Feature         `json:"feature"`
	ID           string          `json:"id"`
	Deleted      bool            `json:"deleted,omitempty"`
	LastModified *time.Time      `json:"last_modified,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the record in its wire form. Tombstones never carry a
// payload even if one was set.
func (r SyncableRecord) MarshalJSON() ([]byte, error) {
	if r.ObjectID == "" {
		return nil, ErrEmptyObjectID
	}

	out := recordJSON{Feature: r.Feature, ID: r.ObjectID, Deleted: r.IsDeleted, LastModified: r.LastModified}
	if !r.IsDeleted && r.Payload != nil {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", r.Feature, err)
		}
		out.Payload = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form, choosing the payload variant by the
// record's feature name.
func (r *SyncableRecord) UnmarshalJSON(b []byte) error {
	rec, err := DecodeRecord("", b)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// DecodeRecord decodes one wire record. feature is used when the record does
// not name its own, as in per-feature pull responses.
func DecodeRecord(feature Feature, b []byte) (SyncableRecord, error) {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return SyncableRecord{}, err
	}
	if in.ID == "" {
		return SyncableRecord{}, ErrEmptyObjectID
	}
	if in.Feature == "" {
		in.Feature = feature
	}

	rec := SyncableRecord{Feature: in.Feature, ObjectID: in.ID, IsDeleted: in.Deleted, LastModified: in.LastModified}
	if !in.Deleted && len(in.Payload) > 0 && string(in.Payload) != "null" {
		payload, err := DecodePayload(in.Feature, in.Payload)
		if err != nil {
			rec.payloadErr = fmt.Errorf("decode payload of %s/%s: %w", in.Feature, in.ID, err)
		} else {
			rec.Payload = payload
		}
	}

	return rec, nil
}
