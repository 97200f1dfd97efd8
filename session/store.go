package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"photobatch/logging"
	"photobatch/types"

	ttlworker "github.com/FloatTech/ttl"
)

const recordPrefix = "img_session_"

// CleanupScheduler records when a session may be reaped
type CleanupScheduler interface {
	ScheduleCleanup(ctx context.Context, sessionID string, deleteAt time.Time) error
}

// Summary is a short view of a session used by the system status report
type Summary struct {
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	Completed  bool      `json:"completed"`
	FilesCount int       `json:"files_count"`
}

// Store persists session records and owns session workspaces
type Store struct {
	kv        KV
	root      string
	cache     *ttlworker.Cache[string, *types.Session]
	scheduler CleanupScheduler
}

// NewStore creates a store rooted at root. cacheTTL bounds how long completed
// records are served from memory; scheduler may be nil.
func NewStore(kv KV, root string, cacheTTL time.Duration, scheduler CleanupScheduler) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("cannot create storage root %s: %w", root, err)
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Store{
		kv:        kv,
		root:      root,
		cache:     ttlworker.NewCache[string, *types.Session](cacheTTL),
		scheduler: scheduler,
	}, nil
}

// Root returns the storage root
func (s *Store) Root() string {
	return s.root
}

// Create allocates a fresh id and its workspace
func (s *Store) Create(ctx context.Context, prefix string, cfg *types.ProcessingConfig) (*Workspace, error) {
	for attempt := 0; attempt < 5; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := newWorkspace(s.root, NewID(prefix))
		err := ws.claim()
		if err == nil {
			ws.Config = cfg
			logging.DebugLog("Created workspace %s", ws.Dir)
			return ws, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("cannot create workspace: %w", err)
		}
	}
	return nil, fmt.Errorf("cannot allocate a unique session id")
}

// Workspace returns the workspace of an existing session
func (s *Store) Workspace(id string) (*Workspace, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	ws := newWorkspace(s.root, id)
	info, err := os.Stat(ws.Dir)
	if err != nil || !info.IsDir() {
		return nil, ErrNotFound
	}
	return ws, nil
}

// Write stores the session record with a single atomic put
func (s *Store) Write(ctx context.Context, sess *types.Session) error {
	if err := ValidateID(sess.SessionID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode session %s: %w", sess.SessionID, err)
	}
	if err := s.kv.Put(ctx, recordPrefix+sess.SessionID, data); err != nil {
		return fmt.Errorf("cannot write session %s: %w", sess.SessionID, err)
	}
	cp := *sess
	s.cache.Set(sess.SessionID, &cp)
	return nil
}

// Read returns a completed session. A session without a workspace is ErrNotFound;
// one whose workspace exists but whose record is missing or unreadable is ErrIncomplete.
func (s *Store) Read(ctx context.Context, id string) (*types.Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	// a reaped session has no workspace, whatever the record store still holds
	if !s.workspaceExists(id) {
		return nil, ErrNotFound
	}
	if cached := s.cache.Get(id); cached != nil {
		cp := *cached
		return &cp, nil
	}

	data, err := s.kv.Get(ctx, recordPrefix+id)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrIncomplete
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read session %s: %w", id, err)
	}

	var sess types.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		logging.LogWarning("Unreadable record for session %s: %v", id, err)
		return nil, ErrIncomplete
	}

	s.cache.Set(id, &sess)
	cp := sess
	return &cp, nil
}

// ScheduleCleanup asks the scheduler to reap the session after ttl
func (s *Store) ScheduleCleanup(ctx context.Context, id string, after time.Duration) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.ScheduleCleanup(ctx, id, time.Now().Add(after))
}

// List returns every session with a workspace under the root, newest first.
// Sessions with a record in the KV store are reported as completed.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	dirs, err := filepath.Glob(filepath.Join(s.root, workspacePrefix+"*"))
	if err != nil {
		return nil, err
	}

	keys, err := s.kv.Keys(ctx, recordPrefix)
	if err != nil {
		return nil, fmt.Errorf("cannot list session records: %w", err)
	}
	recorded := make(map[string]bool, len(keys))
	for _, k := range keys {
		recorded[strings.TrimPrefix(k, recordPrefix)] = true
	}

	summaries := make([]Summary, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		id := strings.TrimPrefix(filepath.Base(dir), workspacePrefix)
		if ValidateID(id) != nil {
			continue
		}

		summary := Summary{SessionID: id, CreatedAt: info.ModTime()}
		if recorded[id] {
			if sess, err := s.Read(ctx, id); err == nil {
				summary.Completed = true
				summary.FilesCount = len(sess.Files)
				summary.CreatedAt = sess.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *Store) workspaceExists(id string) bool {
	info, err := os.Stat(workspaceDir(s.root, id))
	return err == nil && info.IsDir()
}
