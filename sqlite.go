// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
DROP TABLE IF EXISTS pairs;
DROP TABLE IF EXISTS singles;
DROP TABLE IF EXISTS regression;
CREATE TABLE pairs (
	gene_pair TEXT PRIMARY KEY,
	fc_obs REAL, fc_exp REAL, gi_raw REAL,
	g1_fc REAL, g2_fc REAL, dlfc REAL,
	local_std REAL, gi_zscore REAL,
	pval_synth REAL, padj_synth REAL, pval_supp REAL, padj_supp REAL,
	rank INTEGER NOT NULL
);
CREATE TABLE singles (
	gene TEXT PRIMARY KEY,
	fc_obs REAL, fc_exp REAL
);
CREATE TABLE regression (
	r_squared REAL,
	intercept REAL,
	fit_intercept INTEGER,
	rank INTEGER,
	n_removed_dynamic_range INTEGER
);
`

// writeSQLite stores the pipeline results in the SQLite database at
// fnm, replacing any results tables already there. Pair rows keep
// their Z order in the rank column.
func writeSQLite(fnm string, res *PipelineResult) (err error) {
	log.WithField("path", fnm).Info("writing sqlite database")
	db, err := sql.Open("sqlite", fnm)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO pairs VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	for rank, p := range res.Pairs {
		args := []interface{}{p.Pair}
		for _, v := range pairValues(p) {
			args = append(args, v)
		}
		args = append(args, rank)
		if _, err = stmt.Exec(args...); err != nil {
			stmt.Close()
			return fmt.Errorf("insert pair %q: %w", p.Pair, err)
		}
	}
	stmt.Close()

	stmt, err = tx.Prepare(`INSERT INTO singles VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	for _, s := range res.Singles {
		if _, err = stmt.Exec(s.Gene, s.FcObs, s.FcExp); err != nil {
			stmt.Close()
			return fmt.Errorf("insert single %q: %w", s.Gene, err)
		}
	}
	stmt.Close()

	meta := res.Metadata
	_, err = tx.Exec(`INSERT INTO regression VALUES (?,?,?,?,?)`,
		meta.RSquared, meta.Intercept, meta.FitIntercept, meta.Rank, len(res.Removed))
	if err != nil {
		return fmt.Errorf("insert regression metadata: %w", err)
	}
	return tx.Commit()
}
