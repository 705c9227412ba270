package models

import (
	id "mastery/pkg/domain"
)

// Batch is the set of writes staged by one ledger operation. Stores apply a
// batch atomically or not at all; an operation that fails simply drops it.
type Batch struct {
	Config        *Config
	NextID        *id.VerificationID
	Verifications map[id.VerificationID]*Verification
	Index         map[UserCourseKey]id.VerificationID
	Updates       map[id.VerificationID]*VerificationUpdate
	Certificates  map[id.VerificationID]*Certificate
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{
		Verifications: make(map[id.VerificationID]*Verification),
		Index:         make(map[UserCourseKey]id.VerificationID),
		Updates:       make(map[id.VerificationID]*VerificationUpdate),
		Certificates:  make(map[id.VerificationID]*Certificate),
	}
}

// IsEmpty reports whether the batch stages no writes.
func (b *Batch) IsEmpty() bool {
	return b.Config == nil && b.NextID == nil &&
		len(b.Verifications) == 0 && len(b.Index) == 0 &&
		len(b.Updates) == 0 && len(b.Certificates) == 0
}

// Created returns the ids of staged verifications that the batch also
// indexes. Those are new submissions; other staged verifications rewrite an
// existing record.
func (b *Batch) Created() []id.VerificationID {
	var ids []id.VerificationID
	for _, vid := range b.Index {
		if _, ok := b.Verifications[vid]; ok {
			ids = append(ids, vid)
		}
	}
	return ids
}

func (b *Batch) PutConfig(cfg *Config) {
	c := *cfg
	b.Config = &c
}

func (b *Batch) PutNextID(next id.VerificationID) {
	b.NextID = &next
}

func (b *Batch) PutVerification(v *Verification) {
	c := *v
	b.Verifications[v.ID] = &c
}

func (b *Batch) PutIndex(key UserCourseKey, vid id.VerificationID) {
	b.Index[key] = vid
}

func (b *Batch) PutUpdate(u *VerificationUpdate) {
	c := *u
	b.Updates[u.VerificationID] = &c
}

func (b *Batch) PutCertificate(cert *Certificate) {
	c := *cert
	b.Certificates[cert.VerificationID] = &c
}
