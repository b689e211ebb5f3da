// seed_matrix.go seeds a demo decision matrix through the Tally API and prints
// the ranked results.
//
// Usage:
//
//	go run scripts/seed_matrix.go -api http://localhost:8700 -token $TALLY_ADMIN_TOKEN [-file matrix.yaml]
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// matrixFile describes a matrix to seed. Weights are percentages.
type matrixFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Criteria    []struct {
		Name   string  `yaml:"name"`
		Weight float64 `yaml:"weight"`
	} `yaml:"criteria"`
	Options []struct {
		Name   string             `yaml:"name"`
		Scores map[string]float64 `yaml:"scores"`
	} `yaml:"options"`
}

const demo = `
name: Next laptop
description: seeded demo
criteria:
  - {name: price, weight: 40}
  - {name: battery, weight: 30}
  - {name: screen, weight: 30}
options:
  - name: Light
    scores: {price: 4, battery: 5, screen: 3}
  - name: Pro
    scores: {price: 2, battery: 4, screen: 5}
  - name: Budget
    scores: {price: 5, battery: 2, screen: 2}
`

type client struct {
	base   string
	token  string
	userID string
	http   *http.Client
}

func (c *client) call(method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "Tally API base URL")
	token := flag.String("token", os.Getenv("TALLY_ADMIN_TOKEN"), "admin token used to register the seed user")
	email := flag.String("email", "seed@example.com", "email of the seed user")
	userID := flag.String("user", "", "existing user id; skips registration")
	file := flag.String("file", "", "YAML matrix description (defaults to a built-in demo)")
	flag.Parse()

	src := []byte(demo)
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("read %s: %v", *file, err)
		}
		src = data
	}
	var mf matrixFile
	if err := yaml.Unmarshal(src, &mf); err != nil {
		log.Fatalf("parse matrix: %v", err)
	}

	c := &client{base: *apiURL + "/api/v1", token: *token, userID: *userID, http: &http.Client{}}

	if c.userID == "" {
		var u struct {
			ID string `json:"id"`
		}
		if err := c.call("POST", "/users", map[string]string{"username": "seed", "email": *email}, &u); err != nil {
			log.Fatalf("register user: %v", err)
		}
		c.userID = u.ID
		log.Printf("registered user %s", u.ID)
	}

	var m struct {
		ID string `json:"id"`
	}
	if err := c.call("POST", "/matrices", map[string]string{"name": mf.Name, "description": mf.Description}, &m); err != nil {
		log.Fatalf("create matrix: %v", err)
	}

	criterionIDs := make(map[string]string, len(mf.Criteria))
	for _, cr := range mf.Criteria {
		var resp struct {
			Criterion struct {
				ID string `json:"id"`
			} `json:"criterion"`
			Weights struct {
				Warning string `json:"warning"`
			} `json:"weights"`
		}
		body := map[string]interface{}{"name": cr.Name, "weight_percent": cr.Weight}
		if err := c.call("POST", "/matrices/"+m.ID+"/criteria", body, &resp); err != nil {
			log.Fatalf("create criterion %q: %v", cr.Name, err)
		}
		criterionIDs[cr.Name] = resp.Criterion.ID
		if resp.Weights.Warning != "" {
			log.Printf("criterion %s: %s", cr.Name, resp.Weights.Warning)
		}
	}

	for _, o := range mf.Options {
		scores := make(map[string]float64, len(o.Scores))
		for name, v := range o.Scores {
			id, ok := criterionIDs[name]
			if !ok {
				log.Fatalf("option %q scores unknown criterion %q", o.Name, name)
			}
			scores[id] = v
		}
		if err := c.call("POST", "/matrices/"+m.ID+"/options", map[string]interface{}{"name": o.Name, "scores": scores}, nil); err != nil {
			log.Fatalf("create option %q: %v", o.Name, err)
		}
	}

	var res struct {
		Ranking []struct {
			Rank    int     `json:"rank"`
			Name    string  `json:"name"`
			Score   float64 `json:"score"`
			Percent float64 `json:"percent"`
		} `json:"ranking"`
		Weights struct {
			Valid   bool   `json:"valid"`
			Warning string `json:"warning"`
		} `json:"weights"`
	}
	if err := c.call("GET", "/matrices/"+m.ID+"/results", nil, &res); err != nil {
		log.Fatalf("results: %v", err)
	}

	fmt.Printf("matrix %s (%s)\n", mf.Name, m.ID)
	if !res.Weights.Valid {
		fmt.Printf("warning: %s\n", res.Weights.Warning)
	}
	for _, r := range res.Ranking {
		fmt.Printf("%d. %-12s %.2f (%.0f%%)\n", r.Rank, r.Name, r.Score, r.Percent)
	}
}
