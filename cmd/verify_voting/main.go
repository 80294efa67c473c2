package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"
)

// Drives a full vote against a running server. The server must share
// JWT_SECRET with this process and run with SKIP_AUTH=false.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fail("load config", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	baseURL := os.Getenv("VERIFY_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://127.0.0.1:%s", cfg.Port)
	}

	suffix := time.Now().Format("150405")
	owner := newClient(baseURL, models.Identity{UserID: "verify-owner-" + suffix, Name: "Verify Owner"})
	guest := newClient(baseURL, models.Identity{UserID: "verify-guest-" + suffix, Name: "Verify Guest"})

	fmt.Println("Starting Voting Verification...")

	// 1. Create Group
	var group map[string]interface{}
	if err := owner.do("POST", "/api/groups", map[string]interface{}{"name": "Verify " + suffix}, &group); err != nil {
		fail("create group", err)
	}
	groupID := fmt.Sprint(group["id"])
	fmt.Printf("Created Group: %s (Code: %v)\n", groupID, group["code"])

	// 2. Join
	if err := guest.do("POST", "/api/groups/join", map[string]interface{}{"code": group["code"]}, nil); err != nil {
		fail("join group", err)
	}
	fmt.Println("Guest joined")

	// 3. Start Session
	var session map[string]interface{}
	err = owner.do("POST", "/api/vote-sessions", map[string]interface{}{
		"group_id":  groupID,
		"movie_ids": []int{1, 2, 3},
		"duration":  5,
		"movie_metadata": []map[string]interface{}{
			{"id": 2, "title": "Verification Movie"},
		},
	}, &session)
	if err != nil {
		fail("create session", err)
	}
	sessionID := fmt.Sprint(session["id"])
	fmt.Printf("Started Session: %s\n", sessionID)

	// 4. Vote; the guest changes their mind once.
	votes := []struct {
		c     *client
		movie int
	}{{owner, 2}, {guest, 1}, {guest, 2}}
	for _, v := range votes {
		if err := v.c.do("POST", "/api/vote-sessions/"+sessionID+"/votes", map[string]interface{}{"movie_id": v.movie}, nil); err != nil {
			fail("cast vote", err)
		}
	}

	var results struct {
		Results []struct {
			MovieID int `json:"movie_id"`
			Votes   int `json:"votes"`
		} `json:"results"`
	}
	if err := owner.do("GET", "/api/vote-sessions/"+sessionID+"/results", nil, &results); err != nil {
		fail("get results", err)
	}
	total := 0
	for _, r := range results.Results {
		total += r.Votes
	}
	if total != 2 {
		fmt.Printf("FAILURE: Expected 2 votes after re-vote, got %d\n", total)
		os.Exit(1)
	}
	fmt.Println("Votes recorded: 2")

	// 5. Finish
	if err := owner.do("POST", "/api/vote-sessions/"+sessionID+"/finish", nil, nil); err != nil {
		fail("finish session", err)
	}
	if err := owner.do("GET", "/api/groups/"+groupID, nil, &group); err != nil {
		fail("get group", err)
	}

	chosen, _ := group["chosen_movie"].(map[string]interface{})
	if group["status"] == "movie_chosen" && chosen != nil && chosen["title"] == "Verification Movie" {
		fmt.Println("SUCCESS: Winner committed to the group!")
	} else {
		fmt.Printf("FAILURE: Unexpected group state: status=%v chosen=%v\n", group["status"], chosen)
		os.Exit(1)
	}

	// 6. Clean up
	if err := owner.do("DELETE", "/api/groups/"+groupID, nil, nil); err != nil {
		fail("delete group", err)
	}
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL string, identity models.Identity) *client {
	token, err := utils.GenerateToken(identity, time.Hour)
	if err != nil {
		fail("generate token", err)
	}
	return &client{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *client) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fail(step string, err error) {
	fmt.Printf("Failed to %s: %v\n", step, err)
	os.Exit(1)
}
