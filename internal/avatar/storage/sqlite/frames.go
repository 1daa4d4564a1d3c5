package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
)

// FrameRecord is one stored input frame with its diagnostics.
type FrameRecord struct {
	SessionID      string
	Seq            uint64
	Frame          l1joints.Frame
	EstimatedScore float64
	PoseValid      bool
	PoorLowerBody  bool
	Locked         []string
}

// InsertFrames writes records in one transaction.
func (s *Store) InsertFrames(ctx context.Context, recs []FrameRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO frames
			(session_id, seq, ts_ns, keypoints_json, estimated_score, pose_valid, poor_lower_body, locked_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		kp, err := json.Marshal(r.Frame.Keypoints)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", r.Seq, err)
		}
		locked := r.Locked
		if locked == nil {
			locked = []string{}
		}
		lj, err := json.Marshal(locked)
		if err != nil {
			return fmt.Errorf("encode locks %d: %w", r.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, r.SessionID, int64(r.Seq), r.Frame.Timestamp.UnixNano(),
			string(kp), r.EstimatedScore, r.PoseValid, r.PoorLowerBody, string(lj)); err != nil {
			return fmt.Errorf("insert frame %d: %w", r.Seq, err)
		}
	}
	return tx.Commit()
}

// EachFrame calls fn for every frame of a session in sequence order.
// Returning an error from fn stops the scan and is returned as is.
func (s *Store) EachFrame(ctx context.Context, sessionID string, fn func(FrameRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, ts_ns, keypoints_json, estimated_score, pose_valid, poor_lower_body, locked_json
		FROM frames WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := FrameRecord{SessionID: sessionID}
		var (
			seq, ts int64
			kp, lj  string
		)
		if err := rows.Scan(&seq, &ts, &kp, &rec.EstimatedScore, &rec.PoseValid, &rec.PoorLowerBody, &lj); err != nil {
			return fmt.Errorf("scan frame: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.Frame.Timestamp = time.Unix(0, ts).UTC()
		if err := json.Unmarshal([]byte(kp), &rec.Frame.Keypoints); err != nil {
			return fmt.Errorf("decode frame %d: %w", seq, err)
		}
		if err := json.Unmarshal([]byte(lj), &rec.Locked); err != nil {
			return fmt.Errorf("decode locks %d: %w", seq, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Frames loads a whole session.
func (s *Store) Frames(ctx context.Context, sessionID string) ([]FrameRecord, error) {
	var out []FrameRecord
	err := s.EachFrame(ctx, sessionID, func(r FrameRecord) error {
		out = append(out, r)
		return nil
	})
	return out, err
}
