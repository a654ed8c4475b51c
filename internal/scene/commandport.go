package scene

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CommandPort drives a live host session through its MEL command port
// (commandPort -name ":7001" -sourceType "mel"). Each call sends one
// newline-terminated command and reads one NUL-terminated reply.
type CommandPort struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	dialer net.Dialer
}

var _ Scene = (*CommandPort)(nil)

// NewCommandPort creates a client for addr ("host:port"). The connection is
// opened lazily and reopened after I/O failures.
func NewCommandPort(addr string, dialTimeout, ioTimeout time.Duration) *CommandPort {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	if ioTimeout <= 0 {
		ioTimeout = 30 * time.Second
	}
	return &CommandPort{
		addr:        addr,
		dialTimeout: dialTimeout,
		ioTimeout:   ioTimeout,
	}
}

// Addr returns the command port address.
func (c *CommandPort) Addr() string {
	return c.addr
}

// Close drops the connection.
func (c *CommandPort) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *CommandPort) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// Ping checks that the port answers.
func (c *CommandPort) Ping(ctx context.Context) error {
	_, err := c.Exec(ctx, `about -version`)
	return err
}

// Exec sends one MEL command and returns its raw reply.
func (c *CommandPort) Exec(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		dctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
		conn, err := c.dialer.DialContext(dctx, "tcp", c.addr)
		cancel()
		if err != nil {
			return "", fmt.Errorf("connecting to command port %s: %w", c.addr, err)
		}
		c.conn = conn
		c.reader = bufio.NewReader(conn)
	}

	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.closeLocked()
		return "", fmt.Errorf("setting deadline: %w", err)
	}

	if _, err := c.conn.Write([]byte(command + "\n")); err != nil {
		c.closeLocked()
		return "", fmt.Errorf("sending command: %w", err)
	}
	reply, err := c.reader.ReadString(0)
	if err != nil {
		c.closeLocked()
		return "", fmt.Errorf("reading reply: %w", err)
	}
	reply = strings.TrimRight(reply, "\x00\r\n")

	if msg, ok := hostErrorMessage(reply); ok {
		return "", &HostError{Command: command, Message: msg}
	}
	return reply, nil
}

func hostErrorMessage(reply string) (string, bool) {
	for _, prefix := range []string{"// Error: ", "Error: "} {
		if strings.HasPrefix(reply, prefix) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(reply, prefix), "//")), true
		}
	}
	return "", false
}

// execList runs a command whose result is a string array.
func (c *CommandPort) execList(ctx context.Context, command string) ([]string, error) {
	reply, err := c.Exec(ctx, command)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(reply)
	if fields == nil {
		fields = []string{}
	}
	return fields, nil
}

// Quote returns s as a MEL string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

func (c *CommandPort) CreateNode(ctx context.Context, req NodeRequest) (string, error) {
	var cmd strings.Builder
	switch req.Category {
	case CategorySet:
		cmd.WriteString("sets -renderable true -noSurfaceShader true -empty")
		if req.Name != "" {
			cmd.WriteString(" -name " + Quote(req.Name))
		}
	case CategoryShader, CategoryTexture, CategoryUtility:
		flag := map[Category]string{
			CategoryShader:  "-asShader",
			CategoryTexture: "-asTexture",
			CategoryUtility: "-asUtility",
		}[req.Category]
		cmd.WriteString("shadingNode " + flag)
		if req.Name != "" {
			cmd.WriteString(" -name " + Quote(req.Name))
		}
		cmd.WriteString(" " + Quote(req.Type))
	default:
		cmd.WriteString("createNode")
		if req.Name != "" {
			cmd.WriteString(" -name " + Quote(req.Name))
		}
		cmd.WriteString(" " + Quote(req.Type))
	}

	reply, err := c.Exec(ctx, cmd.String())
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(reply)
	if name == "" {
		return "", &HostError{Command: cmd.String(), Message: "empty reply"}
	}
	return name, nil
}

func (c *CommandPort) Connect(ctx context.Context, src, dst Plug) error {
	_, err := c.Exec(ctx, "connectAttr "+Quote(src.String())+" "+Quote(dst.String()))
	return err
}

func (c *CommandPort) SetAttr(ctx context.Context, plug Plug, value any) error {
	var cmd string
	switch v := value.(type) {
	case string:
		cmd = "setAttr -type \"string\" " + Quote(plug.String()) + " " + Quote(v)
	case int:
		cmd = "setAttr " + Quote(plug.String()) + " " + strconv.Itoa(v)
	case int64:
		cmd = "setAttr " + Quote(plug.String()) + " " + strconv.FormatInt(v, 10)
	case float64:
		cmd = "setAttr " + Quote(plug.String()) + " " + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		cmd = "setAttr " + Quote(plug.String()) + " " + strconv.FormatBool(v)
	default:
		return fmt.Errorf("setAttr %s: unsupported value type %T", plug, value)
	}
	_, err := c.Exec(ctx, cmd)
	return err
}

func (c *CommandPort) LinkPlacement(ctx context.Context, placement, texture string) error {
	_, err := c.Exec(ctx, "defaultNavigation -connectToExisting -source "+Quote(placement)+" -destination "+Quote(texture))
	return err
}

func (c *CommandPort) AddToSet(ctx context.Context, objects []string, set string, force bool) error {
	if len(objects) == 0 {
		return nil
	}
	flag := "-addElement"
	if force {
		flag = "-forceElement"
	}
	quoted := make([]string, len(objects))
	for i, o := range objects {
		quoted[i] = Quote(o)
	}
	_, err := c.Exec(ctx, "sets "+flag+" "+Quote(set)+" "+strings.Join(quoted, " "))
	return err
}

func (c *CommandPort) ListSelected(ctx context.Context, filterType string) ([]string, error) {
	if filterType == "" {
		return c.execList(ctx, "ls -selection")
	}
	return c.execList(ctx, "ls -selection -dag -noIntermediate -type "+Quote(filterType))
}

func (c *CommandPort) ListNodeTypes(ctx context.Context, category, excluding string) ([]string, error) {
	cmd := "listNodeTypes"
	if excluding != "" {
		cmd += " -exclude " + Quote(excluding)
	}
	return c.execList(ctx, cmd+" "+Quote(category))
}

func (c *CommandPort) ListAttributes(ctx context.Context, node string) ([]string, error) {
	return c.execList(ctx, "listAttr "+Quote(node))
}

func (c *CommandPort) NodeType(ctx context.Context, node string) (string, error) {
	shapes, err := c.execList(ctx, "listRelatives -shapes -noIntermediate -fullPath "+Quote(node))
	if err != nil {
		return "", err
	}
	target := node
	if len(shapes) > 0 {
		target = shapes[0]
	}
	reply, err := c.Exec(ctx, "nodeType "+Quote(target))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
