package collision

import (
	"sync"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/levelkit/groundd/models"
)

// Store holds the active collision of the editing session.
//
// Loading a mesh builds a new collision on the side and swaps it in once it is
// complete. Queries that already captured the previous collision keep using it
// and never observe a partially built index.
type Store struct {
	// The grid configuration used to index loaded meshes. DefaultConfig is
	// used when zero.
	Config Config

	loadMutex sync.Mutex
	current   atomic.Pointer[Collision]
}

// Load indexes the given mesh and makes it the active collision. The active
// collision is left untouched when indexing fails.
func (s *Store) Load(m models.Mesh) (*Collision, error) {
	s.loadMutex.Lock()
	defer s.loadMutex.Unlock()

	conf := s.Config
	if conf == (Config{}) {
		conf = DefaultConfig()
	}

	c, err := New(m, conf)
	if err != nil {
		return nil, err
	}

	previous := s.current.Swap(c)

	info := c.Index.DebugInfo()
	instrumentActiveIndex(info)

	var previousID string
	if previous != nil {
		previousID = previous.ID
	}

	logs.WithTag("collision_id", c.ID).
		WithTag("previous_collision_id", previousID).
		WithTag("vertices", len(m.Vertices)).
		WithTag("faces", len(m.Faces)).
		WithTag("occupied_cells", info.OccupiedCells).
		WithTag("max_candidates", info.MaxCandidates).
		WithTag("build_duration", c.BuildDuration).
		Info("collision mesh loaded")

	return c, nil
}

// Current returns the active collision. ok is false when no mesh was loaded.
func (s *Store) Current() (c *Collision, ok bool) {
	c = s.current.Load()
	return c, c != nil
}
