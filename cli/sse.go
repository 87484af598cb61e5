package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// Ask posts one query to /api/fetchAi and prints the streamed answer.
func Ask(baseURL, token, username, guestID, chatID, message string, p *printer) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"guestId":  guestID,
		"chatId":   chatID,
		"message":  message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/api/fetchAi", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp domain.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%s (%d): %s", errResp.Code, resp.StatusCode, errResp.Error)
	}

	title, _ := url.PathUnescape(resp.Header.Get("X-Chat-Title"))
	p.Meta(title, resp.Header.Get("X-Session-Id"), resp.Header.Get("X-Is-Guest") == "true")

	err = readEvents(resp.Body, func(event string, data []byte) error {
		if event == "error" {
			return fmt.Errorf("stream interrupted")
		}
		var ev domain.RelayEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil
		}
		p.Update(ev.Content)
		return nil
	})
	p.End()
	return err
}

// readEvents calls fn for each event of an SSE stream. A stream that breaks before
// its final blank line is reported as an error.
func readEvents(r io.Reader, fn func(event string, data []byte) error) error {
	reader := bufio.NewReader(r)
	var event string
	var data []byte
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && data == nil {
				return nil
			}
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if data != nil {
				if err := fn(event, data); err != nil {
					return err
				}
			}
			event, data = "", nil
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = []byte(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}
