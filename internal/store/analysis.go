package store

import (
	"database/sql"
	"errors"
)

// PutAnalysis persists a contract's serialized ContractAnalysis JSON (spec
// §4.2, §6.2). The AnalysisStore treats the payload as opaque text; the
// semantic package owns its shape.
func (sp *Savepoint) PutAnalysis(contract, json string) error {
	_, err := sp.exec(
		"INSERT INTO analysis (contract, json) VALUES (?, ?) ON CONFLICT(contract) DO UPDATE SET json = excluded.json",
		contract, json,
	)
	return err
}

// GetAnalysis retrieves a persisted analysis record, if any.
func (sp *Savepoint) GetAnalysis(contract string) (string, bool, error) {
	var json string
	err := sp.queryRow("SELECT json FROM analysis WHERE contract = ?", contract).Scan(&json)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return json, true, nil
}
