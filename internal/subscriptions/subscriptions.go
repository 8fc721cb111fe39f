// Package subscriptions tracks standing product interests created by
// validated subscription messages: a mutex-guarded map, atomic JSON
// persistence with a rolling backup, and an autosave goroutine.
package subscriptions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ctbto-nms/ims2parser/internal/dictionary"
)

// Entry is one subscriber's standing interest in a product type.
type Entry struct {
	ID          int    // sequential per owner; what SUBSCR_LIST refers to
	Owner       string // MSGINFO.SOURCE, or MSGINFO.ID when SOURCE is absent
	ProductType string
	Frequency   string // IMMEDIATE, DAILY, CONTINUOUS, CUSTOM
	CustomValue string
	Name        string
}

// Registry is the subscriber database, keyed by Owner then ProductType.
type Registry struct {
	mu           sync.RWMutex
	byOwner      map[string]map[string]*Entry
	nextID       map[string]int
	filePath     string
	autoSaveChan chan struct{}
	stopAutoSave chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byOwner:      make(map[string]map[string]*Entry),
		nextID:       make(map[string]int),
		autoSaveChan: make(chan struct{}, 1),
		stopAutoSave: make(chan struct{}),
	}
}

// SetPersistenceFile enables disk persistence and starts the autosave loop.
func (r *Registry) SetPersistenceFile(path string) {
	r.mu.Lock()
	r.filePath = path
	r.mu.Unlock()
	go r.autoSaveLoop()
	log.Info().Str("file", path).Msg("subscription persistence enabled")
}

func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("file", r.filePath).Msg("no existing subscription file, starting fresh")
			return nil
		}
		return fmt.Errorf("read subscriptions file: %w", err)
	}
	var stored map[string]map[string]*Entry
	if err := json.Unmarshal(data, &stored); err != nil {
		return r.loadBackup(err)
	}
	r.byOwner = stored
	log.Info().Str("file", r.filePath).Int("owners", len(stored)).Msg("loaded subscriptions")
	return nil
}

func (r *Registry) loadBackup(originalErr error) error {
	backupPath := r.filePath + ".backup"
	data, err := os.ReadFile(backupPath)
	if err != nil {
		log.Error().Err(originalErr).Str("file", r.filePath).Msg("subscription file corrupted, no backup, starting fresh")
		return nil
	}
	var stored map[string]map[string]*Entry
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Error().Err(originalErr).Str("file", r.filePath).Msg("backup also corrupted, starting fresh")
		return nil
	}
	r.byOwner = stored
	log.Warn().Err(originalErr).Str("backup_file", backupPath).Msg("loaded subscriptions from backup")
	return nil
}

func (r *Registry) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(r.byOwner, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscriptions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if _, err := os.Stat(r.filePath); err == nil {
		if err := copyFile(r.filePath, r.filePath+".backup"); err != nil {
			log.Warn().Err(err).Msg("failed to create backup, continuing with save")
		}
	}
	tmp := r.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, r.filePath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	log.Debug().Str("file", r.filePath).Msg("saved subscriptions to disk")
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func (r *Registry) triggerAutoSave() {
	select {
	case r.autoSaveChan <- struct{}{}:
	default:
	}
}

func (r *Registry) autoSaveLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopAutoSave:
			log.Info().Msg("stopping subscription autosave")
			return
		case <-r.autoSaveChan:
			if err := r.Save(); err != nil {
				log.Error().Err(err).Msg("failed to autosave subscriptions")
			}
		case <-ticker.C:
			if err := r.Save(); err != nil {
				log.Error().Err(err).Msg("failed periodic subscription save")
			}
		}
	}
}

func (r *Registry) Close() error {
	close(r.stopAutoSave)
	return r.Save()
}

// ApplyMessage folds a single validated subscription message's PRODUCTLIST
// and COMMANDLIST into the registry: products create or refresh standing
// entries, UNSUBSCRIBE commands remove them (by SUBSCR_LIST id or
// SUBSCR_NAME), SUBSCR_PROD commands are acknowledgement-only (the
// PRODUCTLIST entries already drove the subscribe).
func (r *Registry) ApplyMessage(msg *dictionary.Message) error {
	owner := msg.MsgInfo.Source
	if owner == "" {
		owner = msg.MsgInfo.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range msg.ProductList {
		r.subscribeLocked(owner, p)
	}
	for _, c := range msg.CommandList {
		if c.Command != "UNSUBSCRIBE" {
			continue
		}
		if err := r.unsubscribeLocked(owner, c); err != nil {
			return err
		}
	}
	r.triggerAutoSave()
	return nil
}

func (r *Registry) subscribeLocked(owner string, p *dictionary.Product) {
	if _, ok := r.byOwner[owner]; !ok {
		r.byOwner[owner] = make(map[string]*Entry)
	}
	productType := p.Classification.ProductType
	if existing, ok := r.byOwner[owner][productType]; ok {
		if p.Frequency != nil {
			existing.Frequency = p.Frequency.Policy
			existing.CustomValue = p.Frequency.Value
		}
		return
	}
	r.nextID[owner]++
	e := &Entry{
		ID:          r.nextID[owner],
		Owner:       owner,
		ProductType: productType,
		Name:        fmt.Sprintf("%s/%s", owner, productType),
	}
	if p.Frequency != nil {
		e.Frequency = p.Frequency.Policy
		e.CustomValue = p.Frequency.Value
	}
	r.byOwner[owner][productType] = e
}

func (r *Registry) unsubscribeLocked(owner string, c *dictionary.Product) error {
	subs, ok := r.byOwner[owner]
	if !ok {
		return nil
	}
	if name, ok := c.Env["SUBSCR_NAME"].(string); ok && name != "" {
		for key, e := range subs {
			if e.Name == name {
				delete(subs, key)
			}
		}
	}
	if ids, ok := c.Env["SUBSCRLIST"].([]int); ok {
		want := make(map[int]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		for key, e := range subs {
			if want[e.ID] {
				delete(subs, key)
			}
		}
	}
	if len(subs) == 0 {
		delete(r.byOwner, owner)
	}
	return nil
}

// OwnerSubscriptions returns a stable-ordered snapshot of owner's current
// subscriptions.
func (r *Registry) OwnerSubscriptions(owner string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.byOwner[owner]
	out := make([]Entry, 0, len(subs))
	for _, e := range subs {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductType < out[j].ProductType })
	return out
}

// Owners returns every subscriber with at least one active subscription.
func (r *Registry) Owners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byOwner))
	for o := range r.byOwner {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
