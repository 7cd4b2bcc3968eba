package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"agrimap/server/internal/models"
	"agrimap/server/internal/pipeline"
)

const defaultBaseURL = "https://api.telegram.org"

type Config struct {
	IsEnabled bool
	BotToken  string
	ChatID    string
}

// Service posts rebalancing alerts to a Telegram chat
type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	config  Config
	baseURL string

	// pair keys already announced
	announced map[string]struct{}
}

func NewService(config Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config:    config,
		baseURL:   defaultBaseURL,
		announced: make(map[string]struct{}),
	}
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.config.IsEnabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build Telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// Run announces pairs from each snapshot that were not announced before
func (s *Service) Run(ctx context.Context, updates <-chan *pipeline.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			s.NotifyNewPairs(ctx, snap.Pairs)
		}
	}
}

// NotifyNewPairs sends one message per pair not seen before and returns how
// many were sent
func (s *Service) NotifyNewPairs(ctx context.Context, pairs []models.RecommendationPair) int {
	if !s.config.IsEnabled {
		return 0
	}

	sent := 0
	for _, p := range pairs {
		key := p.FromKey + "->" + p.ToKey
		if _, seen := s.announced[key]; seen {
			continue
		}

		if err := s.SendMessage(ctx, FormatPair(p)); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"from": p.FromKey,
				"to":   p.ToKey,
			}).Error("Failed to send rebalancing alert")
			continue
		}
		s.announced[key] = struct{}{}
		sent++
	}
	return sent
}

// FormatPair renders a supply to demand pair as an HTML chat message
func FormatPair(p models.RecommendationPair) string {
	return fmt.Sprintf(
		"<b>Surplus can move</b>\n\n"+
			"📦 From: %s (%d farmers)\n"+
			"🛒 To: %s (%d buyers)\n"+
			"📏 Distance: %.1f km\n"+
			"⭐ Score: %.2f",
		html.EscapeString(placeName(p.From, p.FromKey)),
		p.SupplyCount,
		html.EscapeString(placeName(p.To, p.ToKey)),
		p.DemandCount,
		p.DistanceKm,
		p.Score,
	)
}

func placeName(loc models.Location, key string) string {
	switch {
	case loc.Municipality != "" && loc.Province != "":
		return loc.Municipality + ", " + loc.Province
	case loc.Municipality != "":
		return loc.Municipality
	default:
		return key
	}
}
