package scene

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is a minimal command port: it answers each line with the reply
// function's result followed by a NUL byte.
type fakePort struct {
	ln    net.Listener
	reply func(cmd string) string

	mu       sync.Mutex
	commands []string
}

func startFakePort(t *testing.T, reply func(cmd string) string) *fakePort {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakePort{ln: ln, reply: reply}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakePort) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			r := bufio.NewReader(conn)
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				cmd := strings.TrimSuffix(line, "\n")
				f.mu.Lock()
				f.commands = append(f.commands, cmd)
				f.mu.Unlock()
				if _, err := conn.Write([]byte(f.reply(cmd) + "\n\x00")); err != nil {
					return
				}
			}
		}(conn)
	}
}

func (f *fakePort) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakePort) Addr() string {
	return f.ln.Addr().String()
}

func TestCommandPortExec(t *testing.T) {
	f := startFakePort(t, func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "about"):
			return "2025"
		case strings.HasPrefix(cmd, "bogus"):
			return "// Error: Cannot find procedure \"bogus\". //"
		default:
			return ""
		}
	})
	c := NewCommandPort(f.Addr(), time.Second, time.Second)
	defer c.Close()
	ctx := context.Background()

	reply, err := c.Exec(ctx, "about -version")
	require.NoError(t, err)
	assert.Equal(t, "2025", reply)
	require.NoError(t, c.Ping(ctx))

	_, err = c.Exec(ctx, "bogus")
	var herr *HostError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, `Cannot find procedure "bogus".`, herr.Message)
	assert.Equal(t, "bogus", herr.Command)

	// the connection survives a host error
	_, err = c.Exec(ctx, "about -version")
	assert.NoError(t, err)
	assert.Len(t, f.Commands(), 4)
}

func TestCommandPortDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c := NewCommandPort(addr, 200*time.Millisecond, time.Second)
	_, err = c.Exec(context.Background(), "about -version")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to command port")
}

func TestCommandPortCommands(t *testing.T) {
	f := startFakePort(t, func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "shadingNode"), strings.HasPrefix(cmd, "sets -renderable"):
			return "created1"
		case strings.HasPrefix(cmd, "ls -selection"):
			return "pSphere1\tpCube1"
		case strings.HasPrefix(cmd, "listRelatives"):
			return "|pSphere1|pSphereShape1"
		case strings.HasPrefix(cmd, "nodeType"):
			return "mesh"
		default:
			return ""
		}
	})
	c := NewCommandPort(f.Addr(), time.Second, time.Second)
	defer c.Close()
	ctx := context.Background()

	name, err := c.CreateNode(ctx, NodeRequest{Type: "aiStandardSurface", Name: "Hero", Category: CategoryShader})
	require.NoError(t, err)
	assert.Equal(t, "created1", name)
	_, err = c.CreateNode(ctx, NodeRequest{Type: "shadingEngine", Name: "Hero_SG", Category: CategorySet})
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx, P("Hero", "outColor"), P("Hero_SG", "surfaceShader")))
	require.NoError(t, c.SetAttr(ctx, P("file1", "fileTextureName"), `C:\tex\a.<UDIM>.exr`))
	require.NoError(t, c.SetAttr(ctx, P("file1", "uvTilingMode"), 3))
	require.NoError(t, c.LinkPlacement(ctx, "place2d_file1", "file1"))
	require.NoError(t, c.AddToSet(ctx, []string{"pSphere1"}, "Hero_SG", true))
	require.NoError(t, c.AddToSet(ctx, nil, "Hero_SG", true))

	sel, err := c.ListSelected(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pSphere1", "pCube1"}, sel)

	typ, err := c.NodeType(ctx, "pSphere1")
	require.NoError(t, err)
	assert.Equal(t, "mesh", typ)

	assert.Error(t, c.SetAttr(ctx, P("file1", "x"), struct{}{}))

	assert.Equal(t, []string{
		`shadingNode -asShader -name "Hero" "aiStandardSurface"`,
		`sets -renderable true -noSurfaceShader true -empty -name "Hero_SG"`,
		`connectAttr "Hero.outColor" "Hero_SG.surfaceShader"`,
		`setAttr -type "string" "file1.fileTextureName" "C:\\tex\\a.<UDIM>.exr"`,
		`setAttr "file1.uvTilingMode" 3`,
		`defaultNavigation -connectToExisting -source "place2d_file1" -destination "file1"`,
		`sets -forceElement "Hero_SG" "pSphere1"`,
		`ls -selection`,
		`listRelatives -shapes -noIntermediate -fullPath "pSphere1"`,
		`nodeType "|pSphere1|pSphereShape1"`,
	}, f.Commands())
}

func TestCommandPortNodeTypeOfGroup(t *testing.T) {
	f := startFakePort(t, func(cmd string) string {
		switch {
		case cmd == `listRelatives -shapes -noIntermediate -fullPath "grp1"`:
			return ""
		case cmd == `nodeType "grp1"`:
			return "transform"
		case strings.HasPrefix(cmd, "listRelatives"):
			return "|pCube1|pCubeShape1"
		default:
			return "mesh"
		}
	})
	c := NewCommandPort(f.Addr(), time.Second, time.Second)
	defer c.Close()
	ctx := context.Background()

	typ, err := c.NodeType(ctx, "grp1")
	require.NoError(t, err)
	assert.Equal(t, "transform", typ, "a group has no shape of its own")

	typ, err = c.NodeType(ctx, "pCube1")
	require.NoError(t, err)
	assert.Equal(t, "mesh", typ)

	assert.Equal(t, []string{
		`listRelatives -shapes -noIntermediate -fullPath "grp1"`,
		`nodeType "grp1"`,
		`listRelatives -shapes -noIntermediate -fullPath "pCube1"`,
		`nodeType "|pCube1|pCubeShape1"`,
	}, f.Commands())
}

func TestCommandPortEmptyCreateReply(t *testing.T) {
	f := startFakePort(t, func(string) string { return "" })
	c := NewCommandPort(f.Addr(), time.Second, time.Second)
	defer c.Close()

	_, err := c.CreateNode(context.Background(), NodeRequest{Type: "lambert", Category: CategoryShader})
	var herr *HostError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "empty reply", herr.Message)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`a"b`, `"a\"b"`},
		{`C:\tex`, `"C:\\tex"`},
		{"two\nlines", `"two\nlines"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.in))
		})
	}
}
