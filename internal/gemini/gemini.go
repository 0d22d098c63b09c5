package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fittrack/internal/models"

	"github.com/sirupsen/logrus"
)

// Source tags which path produced a result, so callers and tests can tell a
// real generation from the degraded fallback.
type Source string

const (
	SourceGemini   Source = "gemini"
	SourceFallback Source = "fallback"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Recommendation is a piece of generated (or fallback) coaching text.
type Recommendation struct {
	Source      Source    `json:"source"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// WorkoutPlan is a structured workout suggestion. When the model's answer is
// not valid JSON the raw text lands in Description instead.
type WorkoutPlan struct {
	Title             string            `json:"title"`
	Type              string            `json:"type"`
	Exercises         []models.Exercise `json:"exercises,omitempty"`
	EstimatedDuration int               `json:"estimated_duration,omitempty"`
	Difficulty        string            `json:"difficulty,omitempty"`
	Equipment         []string          `json:"equipment,omitempty"`
	Description       string            `json:"description,omitempty"`
	Source            Source            `json:"source"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// Client talks to the Gemini generateContent endpoint. Every public method
// degrades to a deterministic fallback instead of returning an error: AI text
// is a best-effort enhancement, never required functionality.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Gemini client. An empty API key is allowed; all calls
// then take the fallback path.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gemini-pro"
	}
	if apiKey == "" {
		logrus.Warn("Gemini API key not provided, AI recommendations will use fallbacks")
	}
	return &Client{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: 2048,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %v", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.BaseURL, c.Model, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %v", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini API")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateRecommendations builds a coaching prompt from the user's recent
// activity and asks Gemini for personalized advice.
func (c *Client) GenerateRecommendations(ctx context.Context, user *models.User, workouts []models.Workout, goals []models.Goal) Recommendation {
	prompt := buildRecommendationPrompt(user, workouts, goals)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to preset recommendation")
		return fallbackRecommendation()
	}

	return Recommendation{
		Source:      SourceGemini,
		Content:     text,
		GeneratedAt: time.Now(),
	}
}

// GenerateWorkoutSuggestion asks Gemini for a structured workout plan. On JSON
// parse failure the raw text is returned under Description rather than erroring.
func (c *Client) GenerateWorkoutSuggestion(ctx context.Context, user *models.User, workoutType string) WorkoutPlan {
	if workoutType == "" {
		if len(user.Profile.PreferredWorkoutTypes) > 0 {
			workoutType = user.Profile.PreferredWorkoutTypes[0]
		} else {
			workoutType = "cardio"
		}
	}

	text, err := c.generate(ctx, buildWorkoutPrompt(user, workoutType))
	if err != nil {
		logrus.WithError(err).Warn("Falling back to preset workout suggestion")
		return fallbackWorkoutPlan(workoutType)
	}

	var plan WorkoutPlan
	if err := json.Unmarshal([]byte(extractJSON(text)), &plan); err != nil || plan.Title == "" {
		return WorkoutPlan{
			Title:       capitalize(workoutType) + " Workout",
			Type:        workoutType,
			Description: text,
			Source:      SourceGemini,
			GeneratedAt: time.Now(),
		}
	}

	plan.Type = workoutType
	plan.Source = SourceGemini
	plan.GeneratedAt = time.Now()
	return plan
}

func buildRecommendationPrompt(user *models.User, workouts []models.Workout, goals []models.Goal) string {
	var b strings.Builder

	completed := 0
	for _, w := range workouts {
		if w.Completed {
			completed++
		}
	}
	goalsDone := 0
	for _, g := range goals {
		if g.Completed {
			goalsDone++
		}
	}

	fmt.Fprintf(&b, "You are a professional fitness coach analyzing a user's workout and goal data. Based on the following information, provide personalized fitness recommendations.\n\n")
	fmt.Fprintf(&b, "User Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", user.Name)
	fmt.Fprintf(&b, "- Fitness Level: %s\n", user.Profile.FitnessLevel)
	fmt.Fprintf(&b, "- Fitness Goals: %s\n", strings.Join(user.Profile.FitnessGoals, ", "))
	fmt.Fprintf(&b, "- Current Streak: %d days\n", user.Stats.CurrentStreak)
	fmt.Fprintf(&b, "- Total Workouts: %d\n", user.Stats.TotalWorkouts)
	fmt.Fprintf(&b, "- Average Workout Duration: %.0f minutes\n\n", user.Stats.AverageWorkoutDuration)
	fmt.Fprintf(&b, "Recent Performance (Last 30 days):\n")
	fmt.Fprintf(&b, "- Workouts Completed: %d\n", completed)
	fmt.Fprintf(&b, "- Goals Completed: %d\n\n", goalsDone)
	fmt.Fprintf(&b, "Please provide:\n1. 2-3 specific workout recommendations\n2. 1-2 goal suggestions\n3. General motivational advice\n4. Areas for improvement\n\n")
	fmt.Fprintf(&b, "Keep the response motivational, practical, and under 300 words. Focus on actionable advice.\n")
	return b.String()
}

func buildWorkoutPrompt(user *models.User, workoutType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s workout plan for a %s level fitness enthusiast.\n\n", workoutType, user.Profile.FitnessLevel)
	fmt.Fprintf(&b, "User Details:\n")
	fmt.Fprintf(&b, "- Fitness Goals: %s\n", strings.Join(user.Profile.FitnessGoals, ", "))
	fmt.Fprintf(&b, "- Average Workout Duration: %.0f minutes\n\n", user.Stats.AverageWorkoutDuration)
	fmt.Fprintf(&b, "Respond with JSON only, using this structure:\n")
	fmt.Fprintf(&b, `{"title":"workout title","type":%q,"exercises":[{"name":"exercise name","sets":3,"reps":12,"duration":30,"notes":"form tips"}],"estimated_duration":30,"difficulty":"intermediate","equipment":["dumbbells"]}`, workoutType)
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// extractJSON strips the markdown code fences models tend to wrap JSON in.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

var fallbackMessages = []string{
	"Stay consistent with your workout routine - consistency is key to success!",
	"Try incorporating different types of exercises to work all muscle groups.",
	"Set realistic goals and celebrate small victories along the way.",
	"Listen to your body and ensure adequate rest between intense workouts.",
	"Track your progress regularly to stay motivated and see improvements.",
}

func fallbackRecommendation() Recommendation {
	return Recommendation{
		Source:      SourceFallback,
		Content:     fallbackMessages[rand.Intn(len(fallbackMessages))],
		GeneratedAt: time.Now(),
	}
}

var fallbackPlans = map[string]WorkoutPlan{
	"cardio": {
		Title: "Quick Cardio Blast",
		Exercises: []models.Exercise{
			{Name: "Jumping Jacks", Duration: 60},
			{Name: "High Knees", Duration: 45},
			{Name: "Burpees", Sets: 3, Reps: 10},
			{Name: "Mountain Climbers", Duration: 45},
		},
		EstimatedDuration: 20,
	},
	"strength": {
		Title: "Strength Training Session",
		Exercises: []models.Exercise{
			{Name: "Push-ups", Sets: 3, Reps: 12},
			{Name: "Squats", Sets: 3, Reps: 15},
			{Name: "Lunges", Sets: 3, Reps: 10},
			{Name: "Plank", Duration: 60},
		},
		EstimatedDuration: 30,
	},
	"yoga": {
		Title: "Relaxing Yoga Flow",
		Exercises: []models.Exercise{
			{Name: "Sun Salutation", Duration: 300},
			{Name: "Warrior Pose", Duration: 120},
			{Name: "Tree Pose", Duration: 120},
			{Name: "Savasana", Duration: 300},
		},
		EstimatedDuration: 25,
	},
}

func fallbackWorkoutPlan(workoutType string) WorkoutPlan {
	plan, ok := fallbackPlans[workoutType]
	if !ok {
		plan = fallbackPlans["cardio"]
	}
	plan.Type = workoutType
	plan.Source = SourceFallback
	plan.GeneratedAt = time.Now()
	return plan
}
