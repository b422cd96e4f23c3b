//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

type sessionInfo struct {
	ParticipantID string
	DisplayName   string
	Token         string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseHTTP() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

func baseWS() string {
	return envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws")
}

// createSession issues a guest session, or skips when the server runs without a session secret.
func createSession(t *testing.T, displayName string) sessionInfo {
	t.Helper()

	body, err := json.Marshal(map[string]string{"display_name": displayName})
	if err != nil {
		t.Fatalf("marshal session payload: %v", err)
	}

	resp, err := http.Post(baseHTTP()+"/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create session request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		t.Skip("server has no SESSION_JWT_SECRET configured")
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected session response status: %d", resp.StatusCode)
	}

	var out struct {
		ParticipantID string `json:"participant_id"`
		DisplayName   string `json:"display_name"`
		Token         string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session response failed: %v", err)
	}
	if out.Token == "" {
		t.Fatalf("empty token in session response")
	}
	return sessionInfo{ParticipantID: out.ParticipantID, DisplayName: out.DisplayName, Token: out.Token}
}

// dialRoomWS connects to the room socket and returns the connection plus the assigned participant ID.
func dialRoomWS(t *testing.T, token string) (*websocket.Conn, string) {
	t.Helper()

	u, err := url.Parse(baseWS())
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var session wsmsg.SessionPayload
	decodePayload(t, waitFor(t, conn, wsmsg.TypeSession, 5*time.Second), &session)
	return conn, session.ParticipantID
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	msg, err := wsmsg.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitFor reads until a message of msgType arrives, skipping everything else.
func waitFor(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message (waiting for %s) failed: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return wsmsg.Message{}
}

func decodePayload(t *testing.T, msg wsmsg.Message, out any) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		t.Fatalf("decode %s payload: %v", msg.Type, err)
	}
}

// createRoomWS creates a room over conn and returns its code.
func createRoomWS(t *testing.T, conn *websocket.Conn, name string) string {
	t.Helper()

	send(t, conn, wsmsg.TypeCreateRoom, wsmsg.CreateRoomPayload{Name: name})
	var created wsmsg.RoomCreatedPayload
	decodePayload(t, waitFor(t, conn, wsmsg.TypeRoomCreated, 5*time.Second), &created)
	if !created.IsHost {
		t.Fatalf("creator should be host")
	}
	return created.Code
}

func expectError(t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()

	var payload wsmsg.ErrorPayload
	decodePayload(t, waitFor(t, conn, wsmsg.TypeError, 5*time.Second), &payload)
	if payload.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, payload.Code, payload.Message)
	}
}

func getJSON(t *testing.T, path string, out any) int {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s%s", baseHTTP(), path))
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp.StatusCode
}
