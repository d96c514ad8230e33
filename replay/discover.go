package replay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "snekmax-replay/1.0"

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)
	playerRe = regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`)
)

// Player is one entry of a leaderboard page.
type Player struct {
	Name     string
	StatsURL string
}

// Discoverer scrapes game ids from the public web pages.
type Discoverer struct {
	Client *http.Client
}

func NewDiscoverer() *Discoverer {
	return &Discoverer{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Games returns the ids of every /game/<id> link on a player's stats page, in
// page order without duplicates.
func (d *Discoverer) Games(ctx context.Context, statsURL string) ([]string, error) {
	doc, err := d.fetch(ctx, statsURL)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := gameIDRe.FindStringSubmatch(href)
		if len(m) < 2 || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	})
	return ids, nil
}

// Leaderboard lists the players linked from a leaderboard page, with stats
// links resolved against the page URL.
func (d *Discoverer) Leaderboard(ctx context.Context, leaderboardURL string) ([]Player, error) {
	base, err := url.Parse(leaderboardURL)
	if err != nil {
		return nil, err
	}
	doc, err := d.fetch(ctx, leaderboardURL)
	if err != nil {
		return nil, err
	}

	var players []Player
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := playerRe.FindStringSubmatch(href)
		if len(m) < 2 || seen[m[1]] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[m[1]] = true
		players = append(players, Player{Name: m[1], StatsURL: base.ResolveReference(ref).String()})
	})
	return players, nil
}

func (d *Discoverer) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", pageURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
