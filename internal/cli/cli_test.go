package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/chepyr/go-task-board/internal/db"
)

func newTestApp(t *testing.T, secret string) *App {
	t.Helper()
	t.Setenv("BOARD_TOKEN", "")
	conn, err := db.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return NewApp(conn, nil, 0, secret)
}

func execute(t *testing.T, app *App, args ...string) (map[string]any, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(app)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()

	var resp map[string]any
	if buf.Len() > 0 {
		require.NoError(t, sonic.ConfigStd.Unmarshal(buf.Bytes(), &resp), "output: %s", buf.String())
	}
	return resp, err
}

func mustExecute(t *testing.T, app *App, args ...string) map[string]any {
	t.Helper()
	resp, err := execute(t, app, args...)
	require.NoError(t, err, "%v: %v", args, resp)
	require.Equal(t, "ok", resp["status"])
	data, _ := resp["data"].(map[string]any)
	return data
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(&App{})
	require.NotNil(t, cmd)
	assert.Equal(t, "board-service", cmd.Use)

	commands := [][]string{
		{"migrate"}, {"dashboard"},
		{"boards", "list"}, {"boards", "get"}, {"boards", "view"}, {"boards", "create"},
		{"boards", "update"}, {"boards", "remove"}, {"boards", "msg", "add"}, {"boards", "msg", "remove"},
		{"groups", "add"}, {"groups", "update"}, {"groups", "reorder"}, {"groups", "remove"},
		{"tasks", "get"}, {"tasks", "add"}, {"tasks", "duplicate"}, {"tasks", "update"},
		{"tasks", "note"}, {"tasks", "reorder"}, {"tasks", "remove"},
		{"users", "add"}, {"users", "token"},
	}
	for _, path := range commands {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "json", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	app := newTestApp(t, "")
	_, err := execute(t, app, "boards", "list", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBoardWorkflow(t *testing.T) {
	app := newTestApp(t, "")

	mustExecute(t, app, "users", "add", "u1", "--name", "Ada", "--img", "ada.png")
	mustExecute(t, app, "users", "add", "u2", "--name", "Bob")

	b := mustExecute(t, app, "boards", "create", "--as", "u1", "--title", "Launch", "--member", "u2")
	boardID := b["_id"].(string)
	members := b["members"].([]any)
	require.Len(t, members, 2)
	assert.Equal(t, "Ada", members[0].(map[string]any)["fullname"])

	g := mustExecute(t, app, "groups", "add", boardID, "--as", "u1", "--title", "Todo")
	groupID := g["id"].(string)

	first := mustExecute(t, app, "tasks", "add", boardID, groupID, "--as", "u1", "--title", "Write")
	second := mustExecute(t, app, "tasks", "add", boardID, groupID, "--as", "u2", "--title", "Ship", "--front")
	firstID, secondID := first["id"].(string), second["id"].(string)

	change := mustExecute(t, app, "tasks", "update", boardID, groupID, firstID, "--as", "u2",
		"--set", `{"status":{"id":"done","txt":"Done","cssVar":"#00c875"},"memberIds":["u1","u2"]}`,
		"--activity", "Changed status to Done")
	activity := change["activity"].(map[string]any)
	assert.Equal(t, "Changed status to Done", activity["title"])
	assert.Equal(t, "Bob", activity["byMember"].(map[string]any)["fullname"])
	assert.NotEmpty(t, change["task"].(map[string]any)["doneAt"])

	mustExecute(t, app, "tasks", "note", boardID, groupID, firstID, "halfway", "--as", "u1")
	details := mustExecute(t, app, "tasks", "get", boardID, firstID)
	assert.Equal(t, groupID, details["groupId"])
	assert.Len(t, details["updates"], 1)
	assert.Len(t, details["activities"], 1)

	dup := mustExecute(t, app, "tasks", "duplicate", boardID, groupID, secondID, "--as", "u1")
	dupID := dup["id"].(string)

	board := mustExecute(t, app, "boards", "get", boardID)
	tasks := board["groups"].([]any)[0].(map[string]any)["tasks"].([]any)
	var order []string
	for _, tk := range tasks {
		order = append(order, tk.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{secondID, dupID, firstID}, order)

	mustExecute(t, app, "tasks", "reorder", boardID, groupID, firstID, secondID, dupID)
	res := mustExecute(t, app, "boards", "view", boardID, "--status", "done")
	viewGroups := res["board"].(map[string]any)["groups"].([]any)
	require.Len(t, viewGroups, 1)
	viewTasks := viewGroups[0].(map[string]any)["tasks"].([]any)
	require.Len(t, viewTasks, 1)
	assert.Equal(t, firstID, viewTasks[0].(map[string]any)["id"])
	names := res["filterOptions"].(map[string]any)["names"].([]any)
	assert.Len(t, names, 2)

	dash := mustExecute(t, app, "dashboard")
	assert.EqualValues(t, 3, dash["tasksCount"])
	assert.Len(t, dash["byStatus"], 2)
	byMember := dash["byMember"].([]any)
	require.Len(t, byMember, 2)
	assert.Equal(t, "Ada", byMember[0].(map[string]any)["fullname"])

	removed := mustExecute(t, app, "tasks", "remove", boardID, groupID, dupID)
	assert.Equal(t, "Ship", removed["title"])

	mustExecute(t, app, "groups", "update", boardID, groupID, "--title", "Doing", "--collapsed")
	mustExecute(t, app, "boards", "update", boardID, "--starred")
	list := mustExecuteList(t, app, "boards", "list")
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]any)["isStarred"])

	ref := mustExecute(t, app, "groups", "remove", boardID, groupID)
	assert.Equal(t, "Doing", ref["title"])

	resp, err := execute(t, app, "boards", "remove", boardID, "--as", "u2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "PERMISSION_DENIED", resp["error"].(map[string]any)["code"])

	mustExecute(t, app, "boards", "remove", boardID, "--as", "u1")
	resp, err = execute(t, app, "boards", "get", boardID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", resp["error"].(map[string]any)["code"])
}

func mustExecuteList(t *testing.T, app *App, args ...string) []any {
	t.Helper()
	resp, err := execute(t, app, args...)
	require.NoError(t, err)
	list, _ := resp["data"].([]any)
	return list
}

func TestBoardsView_FilterFile(t *testing.T) {
	app := newTestApp(t, "")
	b := mustExecute(t, app, "boards", "create", "--as", "u1", "--title", "Ops")
	boardID := b["_id"].(string)
	g := mustExecute(t, app, "groups", "add", boardID, "--as", "u1")
	groupID := g["id"].(string)
	for _, title := range []string{"beta", "alpha", "gamma"} {
		mustExecute(t, app, "tasks", "add", boardID, groupID, "--as", "u1", "--title", title)
	}

	path := filepath.Join(t.TempDir(), "filter.yaml")
	raw, err := yaml.Marshal(map[string]any{"byNames": []string{"alpha", "gamma"}, "sortBy": "name", "dir": -1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	res := mustExecute(t, app, "boards", "view", boardID, "--filter", path, "--name", "beta")
	tasks := res["board"].(map[string]any)["groups"].([]any)[0].(map[string]any)["tasks"].([]any)
	var got []string
	for _, tk := range tasks {
		got = append(got, tk.(map[string]any)["title"].(string))
	}
	assert.Equal(t, []string{"gamma", "beta", "alpha"}, got)

	resp, err := execute(t, app, "boards", "view", boardID, "--sort", "name", "--dir", "2")
	require.Error(t, err)
	assert.Equal(t, "USAGE", resp["error"].(map[string]any)["code"])
}

func TestBoardsView_NameWithComma(t *testing.T) {
	app := newTestApp(t, "")
	b := mustExecute(t, app, "boards", "create", "--as", "u1", "--title", "Ops")
	boardID := b["_id"].(string)
	g := mustExecute(t, app, "groups", "add", boardID, "--as", "u1")
	groupID := g["id"].(string)
	for _, title := range []string{"Fix a, b", "Fix a", "b"} {
		mustExecute(t, app, "tasks", "add", boardID, groupID, "--as", "u1", "--title", title)
	}

	res := mustExecute(t, app, "boards", "view", boardID, "--name", "Fix a, b")
	tasks := res["board"].(map[string]any)["groups"].([]any)[0].(map[string]any)["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Fix a, b", tasks[0].(map[string]any)["title"])
}

func TestActorResolution(t *testing.T) {
	app := newTestApp(t, "")
	resp, err := execute(t, app, "boards", "create", "--title", "Nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "USAGE", resp["error"].(map[string]any)["code"])

	b := mustExecute(t, app, "boards", "create", "--as", "stranger", "--title", "Unknown user")
	assert.Equal(t, "stranger", b["owner"].(map[string]any)["fullname"])
}

func TestActorAdminWithoutTokenWarns(t *testing.T) {
	hook := logtest.NewGlobal()
	t.Cleanup(func() { log.StandardLogger().ReplaceHooks(make(log.LevelHooks)) })
	app := newTestApp(t, "")

	b := mustExecute(t, app, "boards", "create", "--as", "u1", "--title", "Mine")
	assert.Empty(t, hook.AllEntries())

	mustExecute(t, app, "boards", "remove", b["_id"].(string), "--as", "u2", "--admin")
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Data["user"] == "u2" {
			warned = true
		}
	}
	assert.True(t, warned, "admin override without a token should be logged")
}

func TestTokenAuthentication(t *testing.T) {
	app := newTestApp(t, "0123456789abcdef0123456789abcdef")
	mustExecute(t, app, "users", "add", "u1", "--name", "Ada")

	resp, err := execute(t, app, "boards", "create", "--as", "u1", "--title", "Plain")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHENTICATED", resp["error"].(map[string]any)["code"])

	tok := mustExecute(t, app, "users", "token", "u1")
	token := tok["token"].(string)

	b := mustExecute(t, app, "boards", "create", "--token", token, "--title", "Signed")
	assert.Equal(t, "Ada", b["owner"].(map[string]any)["fullname"])

	resp, err = execute(t, app, "boards", "create", "--token", "bad.token.value", "--title", "Forged")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "UNAUTHENTICATED", resp["error"].(map[string]any)["code"])
}

func TestYAMLOutput(t *testing.T) {
	app := newTestApp(t, "")
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(app)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"dashboard", "--format", "yaml"})
	require.NoError(t, cmd.Execute())

	var resp map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, 0, resp["data"].(map[string]any)["tasksCount"])
}
