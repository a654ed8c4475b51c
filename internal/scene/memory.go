package scene

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// NodeState is one node of the in-memory scene.
type NodeState struct {
	Name     string         `json:"name" msgpack:"name"`
	Type     string         `json:"type" msgpack:"type"`
	Category Category       `json:"category,omitempty" msgpack:"category,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Members  []string       `json:"members,omitempty" msgpack:"members,omitempty"`
}

// Connection is one attribute connection.
type Connection struct {
	Src Plug `json:"src" msgpack:"src"`
	Dst Plug `json:"dst" msgpack:"dst"`
}

// Call records one primitive invocation.
type Call struct {
	Op   string `json:"op" msgpack:"op"`
	Args string `json:"args" msgpack:"args"`
}

// Snapshot is the serialisable state of a MemoryScene.
type Snapshot struct {
	Nodes       []NodeState  `json:"nodes" msgpack:"nodes"`
	Connections []Connection `json:"connections" msgpack:"connections"`
	Selection   []string     `json:"selection" msgpack:"selection"`
}

// MemoryScene is a self-contained Scene used for dry runs and tests. It
// follows the host's naming, connection and set membership rules closely
// enough for graph construction to be checked without the host.
type MemoryScene struct {
	mu          sync.RWMutex
	catalog     map[string]TypeInfo
	nodes       map[string]*NodeState
	order       []string
	connections []Connection
	selection   []string
	calls       []Call
	failures    map[string]string
}

var _ Scene = (*MemoryScene)(nil)

// NewMemoryScene creates an empty scene with the default type catalog.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{
		catalog:  DefaultCatalog(),
		nodes:    make(map[string]*NodeState),
		failures: make(map[string]string),
	}
}

// RegisterType adds or replaces a node type.
func (m *MemoryScene) RegisterType(name string, info TypeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[name] = info
}

// AddObject places a geometry node in the scene without recording a call.
func (m *MemoryScene) AddObject(name, nodeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalog[nodeType]; !ok {
		return &HostError{Command: "createNode " + nodeType, Message: "Unknown object type: " + nodeType}
	}
	if _, exists := m.nodes[name]; exists {
		return &HostError{Command: "createNode " + nodeType, Message: "Object name already exists: " + name}
	}
	m.addNode(&NodeState{Name: name, Type: nodeType})
	return nil
}

// Select replaces the selection.
func (m *MemoryScene) Select(names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		if _, ok := m.nodes[n]; !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, n)
		}
	}
	m.selection = append([]string(nil), names...)
	return nil
}

// FailOn makes the next and every later op whose target contains match
// fail with message. op is one of the Call ops, e.g. "createNode".
func (m *MemoryScene) FailOn(op, match, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+"\x00"+match] = message
}

func (m *MemoryScene) checkFailure(op, args string) error {
	for key, msg := range m.failures {
		kop, match, _ := strings.Cut(key, "\x00")
		if kop == op && strings.Contains(args, match) {
			return &HostError{Command: op + " " + args, Message: msg}
		}
	}
	return nil
}

func (m *MemoryScene) record(op, args string) error {
	m.calls = append(m.calls, Call{Op: op, Args: args})
	return m.checkFailure(op, args)
}

func (m *MemoryScene) addNode(n *NodeState) {
	m.nodes[n.Name] = n
	m.order = append(m.order, n.Name)
}

// uniqueName applies the host rule: a taken or empty name gets the lowest
// free numeric suffix.
func (m *MemoryScene) uniqueName(base, nodeType string) string {
	if base == "" {
		base = nodeType
		for i := 1; ; i++ {
			name := base + strconv.Itoa(i)
			if _, taken := m.nodes[name]; !taken {
				return name
			}
		}
	}
	if _, taken := m.nodes[base]; !taken {
		return base
	}
	stem := strings.TrimRight(base, "0123456789")
	for i := 1; ; i++ {
		name := stem + strconv.Itoa(i)
		if _, taken := m.nodes[name]; !taken {
			return name
		}
	}
}

func (m *MemoryScene) CreateNode(ctx context.Context, req NodeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("createNode", req.Type+" "+req.Name); err != nil {
		return "", err
	}
	if _, ok := m.catalog[req.Type]; !ok {
		return "", &HostError{Command: "createNode " + req.Type, Message: "Unknown object type: " + req.Type}
	}
	name := m.uniqueName(req.Name, req.Type)
	m.addNode(&NodeState{Name: name, Type: req.Type, Category: req.Category})
	return name, nil
}

func (m *MemoryScene) hasAttr(plug Plug) error {
	n, ok := m.nodes[plug.Node]
	if !ok {
		return &HostError{Command: plug.String(), Message: "No object matches name: " + plug.Node}
	}
	for _, a := range m.catalog[n.Type].Attributes {
		if a == plug.Attr {
			return nil
		}
	}
	return &HostError{Command: plug.String(), Message: "No object matches name: " + plug.String()}
}

func (m *MemoryScene) Connect(ctx context.Context, src, dst Plug) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(src, dst)
}

func (m *MemoryScene) connectLocked(src, dst Plug) error {
	if err := m.record("connectAttr", src.String()+" "+dst.String()); err != nil {
		return err
	}
	if err := m.hasAttr(src); err != nil {
		return err
	}
	if err := m.hasAttr(dst); err != nil {
		return err
	}
	for _, c := range m.connections {
		if c.Dst == dst {
			return &HostError{
				Command: "connectAttr " + src.String() + " " + dst.String(),
				Message: fmt.Sprintf("The destination attribute '%s' is already connected from '%s'.", dst, c.Src),
			}
		}
	}
	m.connections = append(m.connections, Connection{Src: src, Dst: dst})
	return nil
}

func (m *MemoryScene) SetAttr(ctx context.Context, plug Plug, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("setAttr", fmt.Sprintf("%s %v", plug, value)); err != nil {
		return err
	}
	if err := m.hasAttr(plug); err != nil {
		return err
	}
	switch value.(type) {
	case string, int, int64, float64, bool:
	default:
		return &HostError{Command: "setAttr " + plug.String(), Message: fmt.Sprintf("unsupported value type %T", value)}
	}
	n := m.nodes[plug.Node]
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[plug.Attr] = value
	return nil
}

func (m *MemoryScene) LinkPlacement(ctx context.Context, placement, texture string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("defaultNavigation", placement+" "+texture); err != nil {
		return err
	}
	for _, link := range placementLinks {
		if err := m.connectLocked(P(placement, link[0]), P(texture, link[1])); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryScene) AddToSet(ctx context.Context, objects []string, set string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("sets", fmt.Sprintf("%s %s force=%t", strings.Join(objects, ","), set, force)); err != nil {
		return err
	}
	target, ok := m.nodes[set]
	if !ok || target.Type != "shadingEngine" {
		return &HostError{Command: "sets -forceElement " + set, Message: "No set matches name: " + set}
	}
	for _, obj := range objects {
		if _, ok := m.nodes[obj]; !ok {
			return &HostError{Command: "sets " + obj, Message: "No object matches name: " + obj}
		}
	}

	for _, obj := range objects {
		for _, name := range m.order {
			other := m.nodes[name]
			if other.Type != "shadingEngine" || other.Name == set {
				continue
			}
			if idx := indexOf(other.Members, obj); idx >= 0 {
				if !force {
					return &HostError{Command: "sets " + obj, Message: fmt.Sprintf("%s is already in set %s", obj, other.Name)}
				}
				other.Members = append(other.Members[:idx], other.Members[idx+1:]...)
			}
		}
		if indexOf(target.Members, obj) < 0 {
			target.Members = append(target.Members, obj)
		}
	}
	return nil
}

func (m *MemoryScene) ListSelected(ctx context.Context, filterType string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.selection))
	for _, name := range m.selection {
		n, ok := m.nodes[name]
		if !ok {
			continue
		}
		if filterType == "" || n.Type == filterType {
			out = append(out, name)
		}
	}
	return out, nil
}

func (m *MemoryScene) ListNodeTypes(ctx context.Context, category, excluding string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for name, info := range m.catalog {
		if !strings.HasPrefix(info.Classification, category) {
			continue
		}
		if excluding != "" && strings.Contains(info.Classification, excluding) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryScene) ListAttributes(ctx context.Context, node string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[node]
	if !ok {
		return nil, &HostError{Command: "listAttr " + node, Message: "No object matches name: " + node}
	}
	attrs := m.catalog[n.Type].Attributes
	return append([]string(nil), attrs...), nil
}

func (m *MemoryScene) NodeType(ctx context.Context, node string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[node]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, node)
	}
	return n.Type, nil
}

// Node returns a copy of a node's state.
func (m *MemoryScene) Node(name string) (NodeState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[name]
	if !ok {
		return NodeState{}, false
	}
	return copyNode(n), true
}

// NodesOfType returns node names of a type in creation order.
func (m *MemoryScene) NodesOfType(nodeType string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, name := range m.order {
		if m.nodes[name].Type == nodeType {
			out = append(out, name)
		}
	}
	return out
}

// NodeCount returns how many nodes exist.
func (m *MemoryScene) NodeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// Source returns the plug connected into dst.
func (m *MemoryScene) Source(dst Plug) (Plug, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.connections {
		if c.Dst == dst {
			return c.Src, true
		}
	}
	return Plug{}, false
}

// Connections returns every connection in creation order.
func (m *MemoryScene) Connections() []Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Connection(nil), m.connections...)
}

// Calls returns the recorded primitive invocations.
func (m *MemoryScene) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// CallCount counts recorded invocations of op.
func (m *MemoryScene) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Members returns the members of a set.
func (m *MemoryScene) Members(set string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[set]; ok {
		return append([]string(nil), n.Members...)
	}
	return nil
}

// Snapshot captures nodes, connections and selection.
func (m *MemoryScene) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Nodes:       make([]NodeState, 0, len(m.order)),
		Connections: append([]Connection{}, m.connections...),
		Selection:   append([]string{}, m.selection...),
	}
	for _, name := range m.order {
		snap.Nodes = append(snap.Nodes, copyNode(m.nodes[name]))
	}
	return snap
}

// EncodeSnapshot serialises the scene with msgpack.
func (m *MemoryScene) EncodeSnapshot() ([]byte, error) {
	return msgpack.Marshal(m.Snapshot())
}

// Restore replaces the scene contents with a msgpack snapshot. The call log
// and injected failures are cleared.
func (m *MemoryScene) Restore(data []byte) error {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[string]*NodeState, len(snap.Nodes))
	m.order = nil
	for i := range snap.Nodes {
		n := copyNode(&snap.Nodes[i])
		m.addNode(&n)
	}
	m.connections = snap.Connections
	m.selection = snap.Selection
	m.calls = nil
	m.failures = make(map[string]string)
	return nil
}

func copyNode(n *NodeState) NodeState {
	c := NodeState{Name: n.Name, Type: n.Type, Category: n.Category}
	if len(n.Attrs) > 0 {
		c.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	c.Members = append([]string(nil), n.Members...)
	return c
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
