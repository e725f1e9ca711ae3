package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var exitWords = map[string]struct{}{
	"salir": {},
	"exit":  {},
	"quit":  {},
}

// Session posts every stdin line as one message from the same customer.
type Session struct {
	URL    string
	Sender string
	Client *http.Client
}

type chatRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Chat local con el bot de salmón 🐟 (escribe 'salir' para terminar)")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Cliente: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nEOF recibido, saliendo.")
			return nil
		}

		text := scanner.Text()
		if _, ok := exitWords[strings.ToLower(strings.TrimSpace(text))]; ok {
			fmt.Fprintln(out, "Fin del chat.")
			return nil
		}

		reply, err := s.send(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Bot   : %s\n\n", reply)
	}
}

func (s *Session) send(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{Sender: s.Sender, Text: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if out.Reply == "" {
		return "(sin respuesta)", nil
	}
	return out.Reply, nil
}
