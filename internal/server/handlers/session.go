package handlers

import (
	"sync"
	"time"

	"finreport/internal/model"
)

// cacheMaxFileBytes 超过该大小的文件不进会话缓存（只影响预览体验，不影响保存）
const cacheMaxFileBytes = 10 * 1024 * 1024

// sessionTTL 会话空闲多久后整体回收
const sessionTTL = 30 * time.Minute

type cachedFile struct {
	Filename string
	Bytes    []byte
	Sheets   []model.Sheet
}

type session struct {
	files    map[string]*cachedFile
	lastSeen time.Time
}

// sessionCache 按会话隔离的已解析文件缓存。
// 替代全局可变状态：每个浏览器会话只看到自己预览过的文件。
type sessionCache struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionCache() *sessionCache {
	return &sessionCache{sessions: make(map[string]*session)}
}

// Put 缓存一个已解析文件；超限的文件静默跳过
func (c *sessionCache) Put(sessionID, fileID string, f *cachedFile) {
	if len(f.Bytes) > cacheMaxFileBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictStaleLocked()

	s, ok := c.sessions[sessionID]
	if !ok {
		s = &session{files: make(map[string]*cachedFile)}
		c.sessions[sessionID] = s
	}
	s.files[fileID] = f
	s.lastSeen = time.Now()
}

// Get 读取会话内缓存的文件
func (c *sessionCache) Get(sessionID, fileID string) (*cachedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictStaleLocked()

	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	f, ok := s.files[fileID]
	return f, ok
}

// evictStaleLocked 回收超时会话；调用方需持有锁
func (c *sessionCache) evictStaleLocked() {
	cutoff := time.Now().Add(-sessionTTL)
	for id, s := range c.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(c.sessions, id)
		}
	}
}
