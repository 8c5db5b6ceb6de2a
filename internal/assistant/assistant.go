// Package assistant wraps the Gemini API behind a single GenerateReply call
// for the site's support chat widget.
package assistant

import (
	"context"
	"log"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Fallback replies. The widget must always answer, so API problems degrade
// to fixed Bengali strings instead of errors.
const (
	replyMissingConfig = "আমি দুঃখিত, সিস্টেম কনফিগারেশনে সমস্যা হয়েছে।"
	replyGenericError  = "একটি প্রযুক্তিগত ত্রুটি হয়েছে। দয়া করে পরে আবার চেষ্টা করুন।"
)

const systemInstruction = `You are the friendly support assistant for AutomateIQ, an automation services agency in Bangladesh.
AutomateIQ builds business automation: auto-reply bots for Facebook pages, WhatsApp automation, web scraping, and custom API integrations.
Packages are prepaid, with standard 30 day plans and 7 day trial plans. Payment is accepted through bKash and Nagad.
Answer in Bengali by default, and in English only when the customer writes in English.
Keep answers short and practical. If a question needs a human (pricing negotiation, refunds, account problems), tell the customer to message support from their dashboard.`

// Generator produces a reply for a chat turn.
type Generator interface {
	GenerateReply(ctx context.Context, userMessage string) string
}

// Service talks to Gemini. A nil client means the API key was absent at
// startup; the service still works and serves the config fallback.
type Service struct {
	client *genai.Client
	model  string
}

func NewService(ctx context.Context, apiKey string) *Service {
	svc := &Service{model: defaultModel}
	if apiKey == "" {
		log.Println("[ASSISTANT] [WARN] no API key configured, serving fallback replies")
		return svc
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		log.Println("[ASSISTANT] [ERROR] failed to create client:", err)
		return svc
	}
	svc.client = client
	return svc
}

// GenerateReply returns the assistant's answer to userMessage. It never
// returns an error: every failure path maps to a Bengali fallback string.
func (s *Service) GenerateReply(ctx context.Context, userMessage string) string {
	if s.client == nil {
		return replyMissingConfig
	}
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return replyGenericError
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userMessage, genai.RoleUser),
	}
	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		log.Println("[ASSISTANT] [ERROR] generation failed:", err)
		return replyGenericError
	}

	reply := strings.TrimSpace(result.Text())
	if reply == "" {
		return replyGenericError
	}
	return reply
}
