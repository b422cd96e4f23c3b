//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	wsmsg "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

func TestCreateRoomAndLookup(t *testing.T) {
	host, hostID := dialRoomWS(t, "")
	code := createRoomWS(t, host, "Captain")

	var list wsmsg.PlayerListPayload
	decodePayload(t, waitFor(t, host, wsmsg.TypePlayerList, 5*time.Second), &list)
	if len(list.Players) != 1 || list.Players[0].ID != hostID || !list.Players[0].IsHost {
		t.Fatalf("unexpected initial player list: %+v", list.Players)
	}

	var room struct {
		Code     string `json:"code"`
		State    string `json:"state"`
		Joinable bool   `json:"joinable"`
		Players  []struct {
			Name string `json:"name"`
		} `json:"players"`
	}
	if status := getJSON(t, "/v1/rooms/"+code, &room); status != http.StatusOK {
		t.Fatalf("unexpected room lookup status: %d", status)
	}
	if room.Code != code || room.State != "lobby" || !room.Joinable {
		t.Fatalf("unexpected room summary: %+v", room)
	}
	if len(room.Players) != 1 || room.Players[0].Name != "Captain" {
		t.Fatalf("unexpected players in summary: %+v", room.Players)
	}
}

func TestJoinBroadcastsPlayerList(t *testing.T) {
	host, _ := dialRoomWS(t, "")
	code := createRoomWS(t, host, "Host")
	waitFor(t, host, wsmsg.TypePlayerList, 5*time.Second)

	guest, guestID := dialRoomWS(t, "")
	send(t, guest, wsmsg.TypeJoinRoom, wsmsg.JoinRoomPayload{Code: code, Name: "Guest"})

	var joined wsmsg.JoinedRoomPayload
	decodePayload(t, waitFor(t, guest, wsmsg.TypeJoinedRoom, 5*time.Second), &joined)
	if joined.Code != code || joined.IsHost || joined.ParticipantID != guestID {
		t.Fatalf("unexpected joined payload: %+v", joined)
	}
	waitFor(t, guest, wsmsg.TypePlayerList, 5*time.Second)

	var list wsmsg.PlayerListPayload
	decodePayload(t, waitFor(t, host, wsmsg.TypePlayerList, 5*time.Second), &list)
	if len(list.Players) != 2 || list.Players[1].Name != "Guest" {
		t.Fatalf("host should see both players in join order: %+v", list.Players)
	}

	send(t, host, wsmsg.TypeLeaveRoom, wsmsg.LeaveRoomPayload{Code: code})
	decodePayload(t, waitFor(t, guest, wsmsg.TypePlayerList, 5*time.Second), &list)
	if len(list.Players) != 1 || list.Players[0].ID != guestID || !list.Players[0].IsHost {
		t.Fatalf("guest should be promoted to host: %+v", list.Players)
	}
}

func TestRoomNotFound(t *testing.T) {
	var body map[string]any
	if status := getJSON(t, "/v1/rooms/NOPE42", &body); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["error"] != "room_not_found" {
		t.Fatalf("unexpected error code: %v", body["error"])
	}
}

func TestRoomErrorsGoToRequester(t *testing.T) {
	host, _ := dialRoomWS(t, "")
	code := createRoomWS(t, host, "Host")

	guest, _ := dialRoomWS(t, "")
	send(t, guest, wsmsg.TypeJoinRoom, wsmsg.JoinRoomPayload{Code: "NOPE42"})
	expectError(t, guest, "room_not_found")

	send(t, guest, wsmsg.TypeJoinRoom, wsmsg.JoinRoomPayload{Code: code})
	waitFor(t, guest, wsmsg.TypeJoinedRoom, 5*time.Second)

	send(t, guest, wsmsg.TypeStartGame, wsmsg.StartGamePayload{Code: code})
	expectError(t, guest, "not_host")

	send(t, guest, "teleport", struct{}{})
	expectError(t, guest, "unknown_message_type")
}
