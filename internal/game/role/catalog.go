package role

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Catalog 角色与剧本目录
type Catalog struct {
	roles   map[string]*Role
	order   []string
	scripts map[string]*Script
	sorted  []string
}

type rolesFile struct {
	Roles []*Role `yaml:"roles"`
}

type scriptsFile struct {
	Scripts []*Script `yaml:"scripts"`
}

// Default 返回内置目录
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		rolesData, err := dataFS.ReadFile("data/roles.yaml")
		if err != nil {
			defaultErr = err
			return
		}
		scriptsData, err := dataFS.ReadFile("data/scripts.yaml")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = Load(rolesData, scriptsData)
	})
	return defaultCatalog, defaultErr
}

// MustDefault 返回内置目录，加载失败时panic
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load 从YAML数据构建目录
func Load(rolesData, scriptsData []byte) (*Catalog, error) {
	var rf rolesFile
	if err := yaml.Unmarshal(rolesData, &rf); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	var sf scriptsFile
	if err := yaml.Unmarshal(scriptsData, &sf); err != nil {
		return nil, fmt.Errorf("failed to decode scripts: %w", err)
	}

	c := &Catalog{
		roles:   make(map[string]*Role, len(rf.Roles)),
		scripts: make(map[string]*Script, len(sf.Scripts)),
	}
	for _, r := range rf.Roles {
		if r.ID == "" {
			return nil, fmt.Errorf("role without id")
		}
		if _, dup := c.roles[r.ID]; dup {
			return nil, fmt.Errorf("duplicate role %s", r.ID)
		}
		switch r.Type {
		case Townsfolk, Outsider, Minion, Demon, Traveler:
		default:
			return nil, fmt.Errorf("role %s has unknown type %q", r.ID, r.Type)
		}
		c.roles[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	for _, s := range sf.Scripts {
		for _, id := range s.Roles {
			if _, ok := c.roles[id]; !ok {
				return nil, fmt.Errorf("script %s references unknown role %s", s.ID, id)
			}
		}
		c.scripts[s.ID] = s
		c.sorted = append(c.sorted, s.ID)
	}
	sort.Strings(c.sorted)
	return c, nil
}

// Get 按ID查找角色
func (c *Catalog) Get(id string) (*Role, bool) {
	r, ok := c.roles[id]
	return r, ok
}

// Roles 全部角色，按目录顺序
func (c *Catalog) Roles() []*Role {
	out := make([]*Role, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.roles[id])
	}
	return out
}

// Script 按ID查找剧本
func (c *Catalog) Script(id string) (*Script, bool) {
	s, ok := c.scripts[id]
	return s, ok
}

// Scripts 全部剧本
func (c *Catalog) Scripts() []*Script {
	out := make([]*Script, 0, len(c.sorted))
	for _, id := range c.sorted {
		out = append(out, c.scripts[id])
	}
	return out
}

// ScriptRoles 剧本中指定类型的角色，types为空时返回全部
func (c *Catalog) ScriptRoles(s *Script, types ...Type) []*Role {
	var out []*Role
	for _, id := range s.Roles {
		r := c.roles[id]
		if r == nil {
			continue
		}
		if len(types) == 0 {
			out = append(out, r)
			continue
		}
		for _, t := range types {
			if r.Type == t {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
