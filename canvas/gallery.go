package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

// ErrPieceNotFound is returned when a gallery piece id does not exist.
var ErrPieceNotFound = errors.New("gallery piece not found")

// piecePrefix and pieceExt define the one-file-per-piece naming scheme:
// piece-NNNN.json keyed by zero-padded piece number.
const (
	piecePrefix = "piece-"
	pieceExt    = ".json"
)

// Gallery is the file-based archive of finished pieces for one workspace.
type Gallery struct {
	dir    string
	logger *log.Logger
}

// NewGallery creates a gallery rooted at dir, creating it if needed.
func NewGallery(dir string, logger *log.Logger) (*Gallery, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create gallery dir: %w", err)
	}
	return &Gallery{dir: dir, logger: logger}, nil
}

// PieceID formats the canonical id for a piece number.
func PieceID(number int) string {
	return fmt.Sprintf("%s%04d", piecePrefix, number)
}

// Save writes a piece atomically and returns its id.
func (g *Gallery) Save(piece types.Piece) (string, error) {
	id := PieceID(piece.PieceNumber)
	data, err := json.Marshal(piece)
	if err != nil {
		return "", fmt.Errorf("marshal piece: %w", err)
	}
	if err := WriteFileAtomic(filepath.Join(g.dir, id+pieceExt), data, 0o644); err != nil {
		return "", fmt.Errorf("save piece %s: %w", id, err)
	}
	return id, nil
}

// Load reads the full piece body for an id.
func (g *Gallery) Load(id string) (*types.Piece, error) {
	data, err := os.ReadFile(filepath.Join(g.dir, id+pieceExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPieceNotFound, id)
		}
		return nil, fmt.Errorf("read piece %s: %w", id, err)
	}
	var piece types.Piece
	if err := json.Unmarshal(data, &piece); err != nil {
		return nil, fmt.Errorf("decode piece %s: %w", id, err)
	}
	return &piece, nil
}

// List scans the gallery and returns metadata-only entries sorted by
// piece number. Missing or corrupt files are skipped with a warning;
// a bad file never fails the whole scan.
func (g *Gallery) List() []types.PieceMeta {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		g.logger.Warn("gallery scan failed", map[string]any{"error": err.Error()})
		return nil
	}

	var metas []types.PieceMeta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, piecePrefix) || !strings.HasSuffix(name, pieceExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(g.dir, name))
		if err != nil {
			g.logger.Warn("skipping unreadable gallery piece", map[string]any{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		var piece types.Piece
		if err := json.Unmarshal(data, &piece); err != nil {
			g.logger.Warn("skipping corrupt gallery piece", map[string]any{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		metas = append(metas, types.PieceMeta{
			ID:          strings.TrimSuffix(name, pieceExt),
			CreatedAt:   piece.CreatedAt,
			PieceNumber: piece.PieceNumber,
			StrokeCount: len(piece.Strokes),
			Title:       piece.Title,
			Thumb:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(name+piece.CreatedAt)).String(),
		})
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].PieceNumber < metas[j].PieceNumber })
	return metas
}
