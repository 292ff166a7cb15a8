package flowstate

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/refactron/auth-front/internal/config"
	"github.com/refactron/auth-front/internal/log"
)

// Ensure FirestoreStore implements the Store interface
var _ Store = (*FirestoreStore)(nil)

// FirestoreStore keeps flow slots in Google Cloud Firestore, one document
// per browser session. Firestore has no native TTL on these documents, so
// expiry is enforced on read and abandoned slots are removed by SweepExpired.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// flowDoc is the Firestore document layout for one session's slots
type flowDoc struct {
	Flow       *FlowState `firestore:"flow,omitempty"`
	DeviceCode string     `firestore:"device_code,omitempty"`
	DeviceSet  time.Time  `firestore:"device_set,omitempty"`
	UpdatedAt  time.Time  `firestore:"updated_at"`
}

// NewFirestoreStore connects to Firestore using the configured project and
// database.
func NewFirestoreStore(ctx context.Context, cfg config.FlowStoreConfig) (*FirestoreStore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProject, cfg.FirestoreDatabase)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestoreStore{
		client:     client,
		collection: cfg.FirestoreCollection,
	}, nil
}

func (s *FirestoreStore) doc(sessionID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(sessionID)
}

// PutFlow stores the pending flow for a session, replacing any previous one
func (s *FirestoreStore) PutFlow(ctx context.Context, sessionID string, state FlowState) error {
	_, err := s.doc(sessionID).Set(ctx, map[string]any{
		"flow":       state,
		"updated_at": time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("storing flow state: %w", err)
	}
	return nil
}

// GetFlow returns the pending flow for a session
func (s *FirestoreStore) GetFlow(ctx context.Context, sessionID string) (*FlowState, error) {
	snap, err := s.doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrFlowNotFound
		}
		return nil, fmt.Errorf("reading flow state: %w", err)
	}

	var doc flowDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding flow state: %w", err)
	}
	if doc.Flow == nil {
		return nil, ErrFlowNotFound
	}
	return doc.Flow, nil
}

// ClearFlow removes the pending flow for a session
func (s *FirestoreStore) ClearFlow(ctx context.Context, sessionID string) error {
	_, err := s.doc(sessionID).Update(ctx, []firestore.Update{
		{Path: "flow", Value: firestore.Delete},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("clearing flow state: %w", err)
	}
	return nil
}

// PutDeviceCode stores a device user code to survive a login redirect
func (s *FirestoreStore) PutDeviceCode(ctx context.Context, sessionID, userCode string) error {
	_, err := s.doc(sessionID).Set(ctx, map[string]any{
		"device_code": userCode,
		"device_set":  time.Now(),
		"updated_at":  time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("storing device code: %w", err)
	}
	return nil
}

// TakeDeviceCode returns and clears the carried device user code
func (s *FirestoreStore) TakeDeviceCode(ctx context.Context, sessionID string) (string, error) {
	snap, err := s.doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("reading device code: %w", err)
	}

	var doc flowDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", fmt.Errorf("decoding device code: %w", err)
	}
	if doc.DeviceCode == "" {
		return "", nil
	}

	_, err = s.doc(sessionID).Update(ctx, []firestore.Update{
		{Path: "device_code", Value: firestore.Delete},
		{Path: "device_set", Value: firestore.Delete},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return "", fmt.Errorf("clearing device code: %w", err)
	}

	if time.Since(doc.DeviceSet) > DeviceCodeTTL {
		return "", nil
	}
	return doc.DeviceCode, nil
}

// Close releases the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// SweepExpired removes documents whose flow slot outlived StateTTL and
// carries no device code. Returns how many documents were deleted.
func (s *FirestoreStore) SweepExpired(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-StateTTL).UnixMilli()
	iter := s.client.Collection(s.collection).
		Where("flow.created_at", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.LogWarnWithFields("flowstate", "Expired flow sweep query failed", map[string]any{
				"error": err.Error(),
			})
			break
		}

		var doc flowDoc
		if err := snap.DataTo(&doc); err == nil && doc.DeviceCode != "" {
			// Keep the carry slot; just drop the stale flow.
			if _, err := snap.Ref.Update(ctx, []firestore.Update{
				{Path: "flow", Value: firestore.Delete},
			}); err == nil {
				removed++
			}
			continue
		}

		if _, err := snap.Ref.Delete(ctx); err != nil {
			log.LogWarnWithFields("flowstate", "Failed to delete expired flow", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		removed++
	}
	return removed
}
