package tui

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/storage"
)

// SessionRequest names a map session to prepare.
type SessionRequest struct {
	MapID         string
	MapPath       string // Load from this file instead of the map search path
	Player        string
	Difficulty    config.DifficultyPreset
	Resume        bool // Continue the latest saved session if there is one
	Runtime       core.RuntimeConfig
	ReducedMotion bool
	Store         *storage.Store
	Logger        *log.Logger
}

// PrepareSession loads the map, applies the difficulty and finds the save to resume.
func PrepareSession(req SessionRequest) (SessionOptions, error) {
	mf, err := config.LoadMap(req.MapID, req.MapPath)
	if err != nil {
		return SessionOptions{}, err
	}
	config.ApplyPreset(&mf, req.Difficulty)

	opts := SessionOptions{
		MapID:         mf.ID,
		Player:        req.Player,
		Map:           mf.GameMap(),
		Runtime:       req.Runtime,
		ReducedMotion: req.ReducedMotion,
		Store:         req.Store,
		Logger:        req.Logger,
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	if req.Resume && req.Store != nil {
		rec, err := req.Store.LatestSnapshot(mf.ID, req.Player)
		if err != nil {
			return SessionOptions{}, fmt.Errorf("load saved session: %w", err)
		}
		if rec != nil {
			snap, err := gamemap.UnmarshalSnapshot(rec.Data)
			if err != nil {
				opts.Logger.Warn("ignoring unreadable saved session", "id", rec.ID, "err", err)
			} else {
				opts.Resume = &snap
				opts.Logger.Info("resuming session", "map", mf.ID, "saved", rec.CreatedAt)
			}
		}
	}
	return opts, nil
}

// HasSavedSession reports whether the player has a resumable session on a map.
func HasSavedSession(store *storage.Store, mapID, player string) bool {
	if store == nil {
		return false
	}
	rec, err := store.LatestSnapshot(mapID, player)
	return err == nil && rec != nil
}
