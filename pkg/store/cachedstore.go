// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 8192

// CachedStore is the identity-map layer the Engine talks to. It wraps
// SQLStore with one bounded LRU per entity kind (string, item, file,
// translation keyed by "id:lang") plus two uncapped maps — AllItems
// and AllFiles — that PreloadTranslationsForJob fills from the store
// in one pass over the job's files, issuing one query per file, item
// and translation (not a single join query).
type CachedStore struct {
	*SQLStore

	strings      *lru.Cache[int64, *String]
	stringIDs    *lru.Cache[string, int64] // "text\x00context" -> id
	files        *lru.Cache[int64, *File]
	fileIDs      *lru.Cache[string, int64] // "ns\x00job\x00path" -> id
	items        *lru.Cache[int64, *Item]
	translations *lru.Cache[string, *Translation] // "itemID:lang" -> translation
	properties   *lru.Cache[string, string]

	allItems map[int64]*Item // uncapped: populated by PreloadTranslationsForJob
	allFiles map[int64]*File // uncapped: populated by PreloadTranslationsForJob
}

// NewCachedStore wraps an open SQLStore with identity-map caches.
func NewCachedStore(s *SQLStore) (*CachedStore, error) {
	strCache, err := lru.New[int64, *String](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	strIDCache, err := lru.New[string, int64](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	fileCache, err := lru.New[int64, *File](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	fileIDCache, err := lru.New[string, int64](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	itemCache, err := lru.New[int64, *Item](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	trCache, err := lru.New[string, *Translation](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	propCache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		return nil, err
	}

	return &CachedStore{
		SQLStore:     s,
		strings:      strCache,
		stringIDs:    strIDCache,
		files:        fileCache,
		fileIDs:      fileIDCache,
		items:        itemCache,
		translations: trCache,
		properties:   propCache,
		allItems:     map[int64]*Item{},
		allFiles:     map[int64]*File{},
	}, nil
}

func stringKey(text, context string) string { return text + "\x00" + context }
func fileKey(namespace, jobID, relPath string) string { return namespace + "\x00" + jobID + "\x00" + relPath }
func translationKey(itemID int64, lang string) string {
	return strconv.FormatInt(itemID, 10) + ":" + lang
}

// CachedStringID resolves (text, context), consulting and populating
// the identity map.
func (c *CachedStore) CachedStringID(text, context string, nocreate bool) (int64, bool, error) {
	k := stringKey(text, context)
	if id, ok := c.stringIDs.Get(k); ok {
		return id, true, nil
	}
	id, ok, err := c.GetStringID(text, context, nocreate)
	if err != nil || !ok {
		return id, ok, err
	}
	c.stringIDs.Add(k, id)
	return id, true, nil
}

// CachedFileID resolves (namespace, jobID, relPath), consulting and
// populating the identity map.
func (c *CachedStore) CachedFileID(namespace, jobID, relPath string, nocreate bool) (int64, bool, error) {
	k := fileKey(namespace, jobID, relPath)
	if id, ok := c.fileIDs.Get(k); ok {
		return id, true, nil
	}
	id, ok, err := c.GetFileID(namespace, jobID, relPath, nocreate)
	if err != nil || !ok {
		return id, ok, err
	}
	c.fileIDs.Add(k, id)
	return id, true, nil
}

// InvalidateFilePath must be called whenever a File's rel_path changes
// (rename reconciliation) so the identity map doesn't keep serving the
// old path's cached ID under a key that no longer matches any row.
func (c *CachedStore) InvalidateFilePath(namespace, jobID, oldPath, newPath string, fileID int64) {
	c.fileIDs.Remove(fileKey(namespace, jobID, oldPath))
	c.fileIDs.Add(fileKey(namespace, jobID, newPath), fileID)
	c.files.Remove(fileID)
	delete(c.allFiles, fileID)
}

// CachedTranslation fetches a Translation via the identity map.
func (c *CachedStore) CachedTranslation(itemID int64, lang string) (*Translation, error) {
	k := translationKey(itemID, lang)
	if t, ok := c.translations.Get(k); ok {
		return t, nil
	}
	t, err := c.GetTranslation(itemID, lang)
	if err != nil {
		return nil, err
	}
	if t != nil {
		c.translations.Add(k, t)
	}
	return t, nil
}

// InvalidateTranslation drops a cached Translation after it is upserted.
func (c *CachedStore) InvalidateTranslation(itemID int64, lang string) {
	c.translations.Remove(translationKey(itemID, lang))
}

// CachedProperty fetches a property via the identity map.
func (c *CachedStore) CachedProperty(key string) (string, bool, error) {
	if v, ok := c.properties.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := c.GetProperty(key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.properties.Add(key, v)
	return v, true, nil
}

// SetCachedProperty upserts a property and its cache entry together.
func (c *CachedStore) SetCachedProperty(key, value string) error {
	if err := c.SetProperty(key, value); err != nil {
		return err
	}
	c.properties.Add(key, value)
	return nil
}

// PreloadTranslationsForJob warms the file, item and translation
// identity maps for a (namespace, jobID) job in one pass: all files,
// all their items, and each item's translation in every language of
// langs. Properties are not preloaded. This is the store's one-shot
// cache fill the pipeline prelude calls before the scan stage begins.
func (c *CachedStore) PreloadTranslationsForJob(namespace, jobID string, langs []string) error {
	files, err := c.ListFiles(namespace, jobID)
	if err != nil {
		return err
	}
	for i := range files {
		f := files[i]
		c.allFiles[f.ID] = &f
		c.files.Add(f.ID, &f)
		c.fileIDs.Add(fileKey(namespace, jobID, f.RelPath), f.ID)

		itemIDs, err := c.ItemsForFile(f.ID)
		if err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			it, err := c.GetItem(itemID)
			if err != nil {
				return err
			}
			c.allItems[itemID] = it
			c.items.Add(itemID, it)

			for _, lang := range langs {
				t, err := c.GetTranslation(itemID, lang)
				if err != nil {
					return err
				}
				if t != nil {
					c.translations.Add(translationKey(itemID, lang), t)
				}
			}
		}
	}
	return nil
}

// AllItems returns the uncapped item map populated by
// PreloadTranslationsForJob (for orphan-set diffing).
func (c *CachedStore) AllItems() map[int64]*Item { return c.allItems }

// AllFiles returns the uncapped file map populated by
// PreloadTranslationsForJob.
func (c *CachedStore) AllFiles() map[int64]*File { return c.allFiles }
