// Copyright © 2024 The wlscope authors

package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonRPCRequest builds a JSON-RPC 2.0 request.
func jsonRPCRequest(id int, method string, params any) []byte {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	b, _ := json.Marshal(msg)
	return b
}

// jsonRPCNotification builds a JSON-RPC 2.0 notification (no id).
func jsonRPCNotification(method string, params any) []byte {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	b, _ := json.Marshal(msg)
	return b
}

// lspMessage wraps JSON content with the LSP Content-Length header.
func lspMessage(content []byte) []byte {
	return fmt.Appendf(nil, "Content-Length: %d\r\n\r\n%s", len(content), content)
}

// readLSPMessage reads a single LSP message from a buffered reader.
// Returns the parsed JSON as a map.
func readLSPMessage(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()

	// Read headers until blank line.
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read LSP header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if val, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(val)
			require.NoError(t, err, "parsing Content-Length")
			contentLength = n
		}
	}
	require.Greater(t, contentLength, 0, "Content-Length must be positive")

	// Read content body.
	body := make([]byte, contentLength)
	_, err := io.ReadFull(r, body)
	require.NoError(t, err, "reading message body")

	var msg map[string]any
	require.NoError(t, json.Unmarshal(body, &msg), "parsing JSON body")
	return msg
}

// readResponse reads LSP messages until a response with the given id appears.
// Returns the response and any notifications received along the way.
func readResponse(t *testing.T, r *bufio.Reader, id int) (map[string]any, []map[string]any) {
	t.Helper()
	var notifications []map[string]any
	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for response id=%d", id)
		default:
		}
		msg := readLSPMessage(t, r)
		// If this message has the expected id, it's our response.
		if msgID, ok := msg["id"]; ok {
			var msgIDFloat float64
			switch v := msgID.(type) {
			case float64:
				msgIDFloat = v
			case json.Number:
				f, _ := v.Float64()
				msgIDFloat = f
			}
			if int(msgIDFloat) == id {
				return msg, notifications
			}
		}
		// Otherwise it's a notification (no id, or different id).
		notifications = append(notifications, msg)
	}
}

// e2eServer starts an LSP server on a random TCP port and returns the
// connection and a cleanup function.
func e2eServer(t *testing.T) (net.Conn, func()) {
	t.Helper()

	srv := testServer()
	srv.exitFn = func(int) {}

	// Find a free port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	// Start the server in the background.
	done := make(chan error, 1)
	go func() {
		done <- srv.RunTCP(addr)
	}()

	// Give server a moment to start listening, then connect.
	var conn net.Conn
	for range 50 {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err, "failed to connect to LSP server at %s", addr)

	cleanup := func() {
		_ = conn.Close()
	}

	return conn, cleanup
}

// send writes an LSP message to the connection.
func send(t *testing.T, conn net.Conn, data []byte) {
	t.Helper()
	_, err := conn.Write(lspMessage(data))
	require.NoError(t, err, "writing LSP message")
}

// initializeE2E performs the initialize handshake without a workspace.
func initializeE2E(t *testing.T, conn net.Conn, reader *bufio.Reader) {
	t.Helper()
	send(t, conn, jsonRPCRequest(1, "initialize", map[string]any{
		"capabilities": map[string]any{},
	}))
	readResponse(t, reader, 1)
	send(t, conn, jsonRPCNotification("initialized", map[string]any{}))
}

// openE2E opens a document.
func openE2E(t *testing.T, conn net.Conn, uri, text string) {
	t.Helper()
	send(t, conn, jsonRPCNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "wolfram",
			"version":    1,
			"text":       text,
		},
	}))
}

// waitForDiagnostics reads messages until diagnostics for uri arrive.
func waitForDiagnostics(t *testing.T, reader *bufio.Reader, uri string) []any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for diagnostics notification")
		default:
		}
		msg := readLSPMessage(t, reader)
		if method, ok := msg["method"].(string); ok && method == "textDocument/publishDiagnostics" {
			params := msg["params"].(map[string]any)
			if params["uri"] == uri {
				return params["diagnostics"].([]any)
			}
		}
	}
}

func shutdownE2E(t *testing.T, conn net.Conn, reader *bufio.Reader) {
	t.Helper()
	send(t, conn, jsonRPCRequest(99, "shutdown", nil))
	resp, _ := readResponse(t, reader, 99)
	assert.Nil(t, resp["error"], "shutdown should not error")
	send(t, conn, jsonRPCNotification("exit", nil))
}

func TestE2E_FullLifecycle(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)

	testURI := "file:///tmp/e2e-test/test.wl"
	testContent := `add[a_, b_] := a + b
multiply[x_, y_] := Module[{p = x}, p y]
result = add[1, 2]
`

	// --- Step 1: Initialize ---
	send(t, conn, jsonRPCRequest(1, "initialize", map[string]any{
		"capabilities": map[string]any{},
	}))

	resp, _ := readResponse(t, reader, 1)
	result := resp["result"].(map[string]any)
	caps := result["capabilities"].(map[string]any)

	// Verify key capabilities.
	assert.NotNil(t, caps["hoverProvider"], "should have hover")
	assert.NotNil(t, caps["definitionProvider"], "should have definition")
	assert.NotNil(t, caps["completionProvider"], "should have completion")
	assert.NotNil(t, caps["referencesProvider"], "should have references")
	assert.NotNil(t, caps["documentSymbolProvider"], "should have document symbols")
	assert.NotNil(t, caps["renameProvider"], "should have rename")
	assert.NotNil(t, caps["semanticTokensProvider"], "should have semantic tokens")

	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, "wlscope-lsp", serverInfo["name"])

	// --- Step 2: Initialized ---
	send(t, conn, jsonRPCNotification("initialized", map[string]any{}))

	// --- Step 3: Open document ---
	openE2E(t, conn, testURI, testContent)
	diags := waitForDiagnostics(t, reader, testURI)
	assert.Empty(t, diags, "the document is clean")

	// --- Step 4: Hover on "add" at line 0, char 1 ---
	send(t, conn, jsonRPCRequest(2, "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 1},
	}))

	hoverResp, _ := readResponse(t, reader, 2)
	require.NotNil(t, hoverResp["result"], "hover should return a result")
	hoverResult := hoverResp["result"].(map[string]any)
	hoverContents := hoverResult["contents"].(map[string]any)
	hoverValue := hoverContents["value"].(string)
	assert.Contains(t, hoverValue, "**add**: File Symbol")

	// --- Step 5: Go to Definition on "add" call at line 2, char 10 ---
	send(t, conn, jsonRPCRequest(3, "textDocument/definition", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 2, "character": 10},
	}))

	defResp, _ := readResponse(t, reader, 3)
	require.NotNil(t, defResp["result"], "definition should return a result")
	defResult := defResp["result"].(map[string]any)
	defRange := defResult["range"].(map[string]any)
	defStart := defRange["start"].(map[string]any)
	assert.Equal(t, float64(0), defStart["line"], "definition should point to line 0")

	// --- Step 6: Document Symbols ---
	send(t, conn, jsonRPCRequest(4, "textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
	}))

	symResp, _ := readResponse(t, reader, 4)
	require.NotNil(t, symResp["result"], "document symbols should return a result")
	syms := symResp["result"].([]any)
	var symNames []string
	for _, s := range syms {
		sym := s.(map[string]any)
		symNames = append(symNames, sym["name"].(string))
	}
	assert.Equal(t, []string{"add", "multiply", "result"}, symNames)

	// --- Step 7: Completion after "add" ---
	send(t, conn, jsonRPCRequest(5, "textDocument/completion", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 2, "character": 12},
	}))

	compResp, _ := readResponse(t, reader, 5)
	require.NotNil(t, compResp["result"], "completion should return a result")
	compItems := compResp["result"].([]any)
	var compLabels []string
	for _, item := range compItems {
		ci := item.(map[string]any)
		compLabels = append(compLabels, ci["label"].(string))
	}
	assert.Contains(t, compLabels, "add", "completion should include 'add'")

	// --- Step 8: References for "add" ---
	send(t, conn, jsonRPCRequest(6, "textDocument/references", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 1},
		"context":      map[string]any{"includeDeclaration": true},
	}))

	refsResp, _ := readResponse(t, reader, 6)
	require.NotNil(t, refsResp["result"], "references should return a result")
	refs := refsResp["result"].([]any)
	assert.Len(t, refs, 2, "definition and call site")

	// --- Step 9: Prepare Rename on "p" ---
	send(t, conn, jsonRPCRequest(7, "textDocument/prepareRename", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 1, "character": 28},
	}))

	prepResp, _ := readResponse(t, reader, 7)
	require.NotNil(t, prepResp["result"], "prepare rename should succeed for a local")
	prepResult := prepResp["result"].(map[string]any)
	assert.Equal(t, "p", prepResult["placeholder"], "placeholder should be the symbol name")

	// --- Step 10: Rename "add" to "sum" ---
	send(t, conn, jsonRPCRequest(8, "textDocument/rename", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 1},
		"newName":      "sum",
	}))

	renameResp, _ := readResponse(t, reader, 8)
	require.NotNil(t, renameResp["result"], "rename should return a workspace edit")
	renameResult := renameResp["result"].(map[string]any)
	changes := renameResult["changes"].(map[string]any)
	fileEdits := changes[testURI].([]any)
	assert.Len(t, fileEdits, 2, "should rename at definition and call site")
	for _, edit := range fileEdits {
		e := edit.(map[string]any)
		assert.Equal(t, "sum", e["newText"], "all edits should use the new name")
	}

	// --- Step 11: Change document (introduce an unused local) ---
	send(t, conn, jsonRPCNotification("textDocument/didChange", map[string]any{
		"textDocument": map[string]any{"uri": testURI, "version": 2},
		"contentChanges": []any{
			map[string]any{"text": "Module[{unused}, Sin[1]]\n"},
		},
	}))

	// The debounced run publishes the lint warning.
	diags = waitForDiagnostics(t, reader, testURI)
	require.Len(t, diags, 1)
	assert.Equal(t, "unused-local", diags[0].(map[string]any)["code"])

	// --- Step 12: Hover on a builtin ---
	send(t, conn, jsonRPCRequest(9, "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 18},
	}))

	builtinHoverResp, _ := readResponse(t, reader, 9)
	require.NotNil(t, builtinHoverResp["result"], "hover on builtin should return a result")
	builtinResult := builtinHoverResp["result"].(map[string]any)
	builtinContents := builtinResult["contents"].(map[string]any)
	builtinValue := builtinContents["value"].(string)
	assert.Contains(t, builtinValue, "System`Sin")
	assert.Contains(t, builtinValue, "Sin[z]")

	// --- Step 13: Close document ---
	send(t, conn, jsonRPCNotification("textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
	}))
	assert.Empty(t, waitForDiagnostics(t, reader, testURI), "closing clears diagnostics")

	// --- Step 14: Shutdown and exit ---
	shutdownE2E(t, conn, reader)
}

func TestE2E_DiagnosticsPublishedOnOpen(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	testURI := "file:///tmp/e2e-diag/test.wl"
	initializeE2E(t, conn, reader)

	// Open document with a parse error.
	openE2E(t, conn, testURI, "f[x, ")
	diags := waitForDiagnostics(t, reader, testURI)
	require.NotEmpty(t, diags, "parse error should produce diagnostics")

	// Verify at least one diagnostic is an error.
	var foundError bool
	for _, d := range diags {
		diag := d.(map[string]any)
		if sev, ok := diag["severity"].(float64); ok && sev == 1 { // 1 = Error
			foundError = true
		}
	}
	assert.True(t, foundError, "should have at least one error diagnostic")

	shutdownE2E(t, conn, reader)
}

func TestE2E_LintDiagnostics(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	testURI := "file:///tmp/e2e-lint/test.wl"
	initializeE2E(t, conn, reader)

	openE2E(t, conn, testURI, "Module[{x, x}, x]")
	diags := waitForDiagnostics(t, reader, testURI)
	require.NotEmpty(t, diags, "lint issues should produce diagnostics")

	var foundLint bool
	for _, d := range diags {
		diag := d.(map[string]any)
		if source, ok := diag["source"].(string); ok && source == "wlscope-lint" {
			foundLint = true
			assert.Equal(t, "duplicate-local", diag["code"])
		}
	}
	assert.True(t, foundLint, "should have at least one lint diagnostic")

	shutdownE2E(t, conn, reader)
}

func TestE2E_HoverOnWhitespace(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	testURI := "file:///tmp/e2e-ws/test.wl"
	initializeE2E(t, conn, reader)
	openE2E(t, conn, testURI, "x = 1\n\n\ny = 2")
	waitForDiagnostics(t, reader, testURI)

	send(t, conn, jsonRPCRequest(2, "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 1, "character": 0},
	}))
	resp, _ := readResponse(t, reader, 2)
	assert.Nil(t, resp["error"])
	assert.Nil(t, resp["result"], "hover on a blank line returns null")

	shutdownE2E(t, conn, reader)
}

func TestE2E_SignatureHelp(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	testURI := "file:///tmp/e2e-sig/test.wl"
	initializeE2E(t, conn, reader)
	openE2E(t, conn, testURI, "Table[i, {i, 3}]")
	waitForDiagnostics(t, reader, testURI)

	send(t, conn, jsonRPCRequest(2, "textDocument/signatureHelp", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 10},
	}))
	resp, _ := readResponse(t, reader, 2)
	require.NotNil(t, resp["result"], "signature help inside a builtin call")
	result := resp["result"].(map[string]any)
	sigs := result["signatures"].([]any)
	require.NotEmpty(t, sigs)
	assert.Equal(t, "Table[expr, n]", sigs[0].(map[string]any)["label"])
	assert.Equal(t, float64(1), result["activeParameter"])

	shutdownE2E(t, conn, reader)
}

func TestE2E_RenameBuiltinRejected(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	testURI := "file:///tmp/e2e-rename/test.wl"
	initializeE2E(t, conn, reader)
	openE2E(t, conn, testURI, "Sin[1]")
	waitForDiagnostics(t, reader, testURI)

	send(t, conn, jsonRPCRequest(2, "textDocument/prepareRename", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 1},
	}))
	prep, _ := readResponse(t, reader, 2)
	assert.Nil(t, prep["result"], "builtins cannot be renamed")

	send(t, conn, jsonRPCRequest(3, "textDocument/rename", map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": 0, "character": 1},
		"newName":      "Cos",
	}))
	resp, _ := readResponse(t, reader, 3)
	require.NotNil(t, resp["error"], "rename of a builtin is an error")

	shutdownE2E(t, conn, reader)
}
