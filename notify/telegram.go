// Package notify отправляет уведомления об ошибках конвейера. Канал
// работает по принципу «отправил и забыл»: его собственные сбои только
// логируются и никогда не влияют на обработку.
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// TelegramNotifier отправляет сообщения через Telegram Bot API.
type TelegramNotifier struct {
	apiURL string
	token  string
	chatID string
	client *http.Client
}

// NewTelegramNotifier создает уведомитель для бота и чата.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		apiURL: "https://api.telegram.org",
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Notify отправляет одно сообщение. Ошибки отправки логируются и
// проглатываются.
func (n *TelegramNotifier) Notify(message string) {
	payload, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: message})
	if err != nil {
		log.Printf("[Notify] не удалось сериализовать сообщение: %v", err)
		return
	}

	resp, err := n.client.Post(n.apiURL+"/bot"+n.token+"/sendMessage",
		"application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("[Notify] отправка в Telegram не удалась: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Notify] Telegram вернул статус %d", resp.StatusCode)
	}
}

// Nop уведомитель-заглушка, используется когда Telegram не настроен.
type Nop struct{}

// Notify ничего не делает.
func (Nop) Notify(string) {}
