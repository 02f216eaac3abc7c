// internal/judgment/prompts.go
package judgment

import (
	"encoding/json"
	"fmt"
	"strings"

	"subsidy-recommender/internal/models"
)

const (
	eligibilitySystem = "You are an eligibility checker. Respond only with valid JSON."
	scoringSystem     = "You are a subsidy scorer. Return ONLY valid JSON, no markdown formatting."
)

func eligibilityPrompt(p models.FarmerProfile, s models.Subsidy) string {
	criteria, err := json.Marshal(s.Eligibility)
	if err != nil {
		criteria = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("Does this farmer meet the eligibility criteria for this subsidy?\n")
	b.WriteString("Farmer Profile:\n")
	fmt.Fprintf(&b, "- Income: %s\n", p.Income)
	fmt.Fprintf(&b, "- Land Size: %s acres\n", p.LandSize)
	fmt.Fprintf(&b, "- Farmer Type: %s\n", p.FarmerType)
	fmt.Fprintf(&b, "- Crop: %s\n", p.CropType)
	fmt.Fprintf(&b, "- State: %s\n\n", p.State)
	fmt.Fprintf(&b, "Subsidy: %s\n", s.Title)
	fmt.Fprintf(&b, "Eligibility Criteria: %s\n\n", criteria)
	b.WriteString("Answer with JSON:\n")
	b.WriteString(`{"eligible": true/false, "reason": "brief explanation"}`)
	return b.String()
}

func scoringPrompt(p models.FarmerProfile, s models.Subsidy) string {
	description := s.Description
	if strings.TrimSpace(description) == "" {
		description = models.NotAvailable
	}

	var b strings.Builder
	b.WriteString("Score this subsidy's relevance (0-100) for this farmer.\n")
	fmt.Fprintf(&b, "Farmer: %s with %s acres, growing %s, income ₹%s, from %s, %s\n",
		p.FarmerType, p.LandSize, p.CropType, p.Income, p.District, p.State)
	fmt.Fprintf(&b, "Subsidy: %s - %s (Amount: ₹%s)\n", s.Title, description, s.Amount)
	b.WriteString("Score based on: crop match (40pts), income/land fit (30pts), region relevance (20pts), timing (10pts)\n")
	b.WriteString("Return ONLY this JSON format, no markdown, no explanation:\n")
	b.WriteString(`{"score": 85, "reasoning": "Brief reason for score", "key_benefits": ["benefit1", "benefit2"]}`)
	return b.String()
}
