// Command loadtest drives concurrent reactions against one game while websocket
// watchers count the live events, then checks the final tally.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the run results.
type Metrics struct {
	Requests       int64
	Succeeded      int64
	RateLimited    int64
	Failed         int64
	EventsReceived int64
	WatchersFailed int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 10 * time.Second}

type reactionStats struct {
	LikeCount    int64 `json:"likeCount"`
	DislikeCount int64 `json:"dislikeCount"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	gameID := flag.String("game", "", "Game ID to react to")
	players := flag.Int("players", 50, "Number of concurrent players")
	ops := flag.Int("ops", 20, "Reaction requests per player")
	watchers := flag.Int("watchers", 5, "Websocket clients watching the game")
	flag.Parse()

	if *gameID == "" {
		log.Fatal("-game is required")
	}

	log.Printf("🚀 Reaction load test against %s (game %s)", *host, *gameID)
	log.Printf("Players: %d, ops/player: %d, watchers: %d", *players, *ops, *watchers)

	stop := make(chan struct{})
	var watchWG sync.WaitGroup
	for i := 0; i < *watchers; i++ {
		watchWG.Add(1)
		go watch(*host, *gameID, stop, &watchWG)
	}

	tokens := make([]string, 0, *players)
	runID := time.Now().UnixNano()
	for i := 0; i < *players; i++ {
		token, err := signup(*host, fmt.Sprintf("load-%d-%d@playhub.test", runID, i))
		if err != nil {
			log.Fatalf("❌ Signup failed: %v", err)
		}
		tokens = append(tokens, token)
	}
	log.Printf("✅ %d players signed up", len(tokens))

	start := time.Now()
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano()))
			for range *ops {
				react(*host, *gameID, token, r.Intn(3))
			}
		}(token)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Let the last events reach the watchers.
	time.Sleep(time.Second)
	close(stop)
	watchWG.Wait()

	stats, err := fetchStats(*host, *gameID)
	if err != nil {
		log.Fatalf("❌ Fetching reactions failed: %v", err)
	}

	printMetrics(elapsed)
	log.Printf("Final tally: %d likes, %d dislikes", stats.LikeCount, stats.DislikeCount)
	if total := stats.LikeCount + stats.DislikeCount; total > int64(*players) {
		log.Fatalf("❌ %d reactions for %d players: more than one reaction per player", total, *players)
	}
	log.Println("✅ At most one reaction per player")
}

func signup(host, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
	resp, err := httpClient.Post(fmt.Sprintf("http://%s/api/auth/signup", host), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("signup failed with status %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func react(host, gameID, token string, op int) {
	method, path := http.MethodPost, "/like"
	switch op {
	case 1:
		path = "/dislike"
	case 2:
		method, path = http.MethodDelete, "/reaction"
	}

	req, _ := http.NewRequest(method, fmt.Sprintf("http://%s/api/games/%s%s", host, gameID, path), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	atomic.AddInt64(&metrics.Requests, 1)
	resp, err := httpClient.Do(req)
	if err != nil {
		atomic.AddInt64(&metrics.Failed, 1)
		return
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		atomic.AddInt64(&metrics.Succeeded, 1)
	case http.StatusTooManyRequests:
		atomic.AddInt64(&metrics.RateLimited, 1)
	default:
		atomic.AddInt64(&metrics.Failed, 1)
	}
}

func watch(host, gameID string, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/games", RawQuery: "games=" + url.QueryEscape(gameID)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.WatchersFailed, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	}()

	select {
	case <-stop:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func fetchStats(host, gameID string) (*reactionStats, error) {
	resp, err := httpClient.Get(fmt.Sprintf("http://%s/api/games/%s/reactions", host, gameID))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var stats reactionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func printMetrics(elapsed time.Duration) {
	requests := atomic.LoadInt64(&metrics.Requests)
	log.Println("📊 Results")
	log.Println("==========")
	log.Printf("Requests: %d in %v (%.0f req/s)", requests, elapsed.Round(time.Millisecond), float64(requests)/elapsed.Seconds())
	log.Printf("Succeeded: %d", atomic.LoadInt64(&metrics.Succeeded))
	log.Printf("Rate limited (429): %d", atomic.LoadInt64(&metrics.RateLimited))
	log.Printf("Failed: %d", atomic.LoadInt64(&metrics.Failed))
	log.Printf("Live events received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Watchers failed to connect: %d", atomic.LoadInt64(&metrics.WatchersFailed))
}
