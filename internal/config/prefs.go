package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Prefs 持久化的用户偏好（目前只有上次选择的服务器）
type Prefs struct {
	mu   sync.Mutex
	path string
	data prefsFile
}

type prefsFile struct {
	LastServer string `json:"lastServer,omitempty"`
}

// DefaultPrefsPath 用户配置目录下的 arena/prefs.json
func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "arena", "prefs.json"), nil
}

// LoadPrefs 读取偏好文件，不存在时返回空偏好
func LoadPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(b, &p.data); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", path, err)
	}
	return p, nil
}

// LastServer 上次选择的服务器 ID
func (p *Prefs) LastServer() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastServer
}

// SetLastServer 记录并保存
func (p *Prefs) SetLastServer(id string) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.LastServer = id
	return p.save()
}

// ClearLastServer 清除记录（死亡或连接彻底失败后）
func (p *Prefs) ClearLastServer() error {
	return p.SetLastServer("")
}

func (p *Prefs) save() error {
	if p.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	b, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return os.Rename(tmp, p.path)
}

// ResolveServer 按优先级选择服务器：显式 ID > 上次记录 > 列表第一项
func (c Config) ResolveServer(id string, prefs *Prefs) (Server, error) {
	if id != "" {
		s, ok := c.ServerByID(id)
		if !ok {
			return Server{}, fmt.Errorf("unknown server %q", id)
		}
		return s, nil
	}
	if last := prefs.LastServer(); last != "" {
		if s, ok := c.ServerByID(last); ok {
			return s, nil
		}
	}
	if len(c.Servers) == 0 {
		return Server{}, errors.New("no servers configured")
	}
	return c.Servers[0], nil
}
