package storage

import (
	"github.com/goel7054/swagger-bot/internal/corpus"
)

// RecordsFromSnapshot describes every document of snap, in load order.
func RecordsFromSnapshot(snap *corpus.Snapshot) []*SpecRecord {
	ops := make(map[string]int)
	for _, e := range snap.Corpus.Entries {
		ops[e.SourceID]++
	}
	warnings := make(map[string][]string)
	if snap.Report != nil {
		for _, w := range snap.Report.Warnings {
			warnings[w.SourceID] = append(warnings[w.SourceID], w.Message)
		}
	}

	records := make([]*SpecRecord, 0, len(snap.Documents))
	for i, doc := range snap.Documents {
		records = append(records, &SpecRecord{
			SourceID:    doc.SourceID,
			Path:        doc.Path,
			Title:       doc.Title(),
			Version:     doc.InfoVersion(),
			SpecVersion: doc.Version(),
			Operations:  ops[doc.SourceID],
			ContentHash: doc.Hash,
			SizeBytes:   doc.Size,
			LoadOrder:   i,
			BuildID:     snap.BuildID,
			Warnings:    warnings[doc.SourceID],
		})
	}
	return records
}
