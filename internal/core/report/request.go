package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
)

// Schema is a minimal JSON schema tree describing the reply we ask for.
// Generator adapters translate it into their own schema representation.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

type HabitSpec struct {
	HabitID     domain.ID `json:"habit_id"`
	Name        string    `json:"name"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	DayOfWeek   []int     `json:"day_of_week"`
	Attempts    int       `json:"attempts"`
	Successes   int       `json:"successes"`
	SuccessRate float64   `json:"success_rate"`
}

type UserProfile struct {
	Nickname        string   `json:"nickname"`
	BirthYear       *int     `json:"birth_year,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Job             string   `json:"job,omitempty"`
	Age             *int     `json:"age,omitempty"`
	Occupation      string   `json:"occupation,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
}

// GenerationRequest is everything a generator needs for one report. It is a
// plain value: building it never talks to the outside world.
type GenerationRequest struct {
	UserID                  domain.ID           `json:"user_id"`
	Type                    domain.ReportType   `json:"type"`
	StartDate               string              `json:"start_date"`
	EndDate                 string              `json:"end_date"`
	Profile                 UserProfile         `json:"profile"`
	Habits                  []HabitSpec         `json:"habits"`
	Overall                 domain.OverallStats `json:"overall"`
	ExpectedRecommendations int                 `json:"expected_recommendations"`
	TopK                    int                 `json:"top_k"`
	Schema                  *Schema             `json:"schema"`
	Prompt                  string              `json:"prompt"`
}

// BuildRequest assembles the request for the active habits of one bundle.
// stats must be aligned with active. topK is the number of failure reasons
// asked per habit; values below 1 mean DefaultTopK.
func BuildRequest(b domain.Bundle, reportType domain.ReportType, p domain.Period, active []domain.Habit, stats []domain.HabitStats, overall domain.OverallStats, topK int) (GenerationRequest, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(stats) != len(active) {
		return GenerationRequest{}, fmt.Errorf("build request: %d stats for %d habits", len(stats), len(active))
	}

	specs := make([]HabitSpec, 0, len(active))
	for i, h := range active {
		days := h.DayOfWeek
		if days == nil {
			days = []int{}
		}
		specs = append(specs, HabitSpec{
			HabitID:     h.HabitID,
			Name:        h.Name,
			StartTime:   h.StartTime,
			EndTime:     h.EndTime,
			DayOfWeek:   days,
			Attempts:    stats[i].Attempts,
			Successes:   stats[i].Successes,
			SuccessRate: stats[i].SuccessRate,
		})
	}

	req := GenerationRequest{
		UserID:    b.UserID,
		Type:      reportType,
		StartDate: p.StartDate(),
		EndDate:   p.EndDate(),
		Profile: UserProfile{
			Nickname:        b.DisplayName(),
			BirthYear:       b.BirthYear,
			Gender:          b.Gender,
			Job:             b.Job,
			Age:             b.Age,
			Occupation:      b.Occupation,
			Characteristics: b.Characteristics,
		},
		Habits:                  specs,
		Overall:                 overall,
		ExpectedRecommendations: len(specs),
		TopK:                    topK,
		Schema:                  ReportSchema(active),
	}

	prompt, err := renderPrompt(req)
	if err != nil {
		return GenerationRequest{}, err
	}
	req.Prompt = prompt
	return req, nil
}

// ReportSchema describes the reply object. habit_id is typed as an integer
// only when every active habit uses numeric ids.
func ReportSchema(active []domain.Habit) *Schema {
	idType := TypeInteger
	for _, h := range active {
		if !h.HabitID.IsNumeric() {
			idType = TypeString
			break
		}
	}

	return &Schema{
		Type:     TypeObject,
		Required: []string{"start_date", "end_date", "top_failure_reasons", "summary", "recommendation"},
		Properties: map[string]*Schema{
			"start_date": {Type: TypeString, Description: "YYYY-MM-DD"},
			"end_date":   {Type: TypeString, Description: "YYYY-MM-DD"},
			"top_failure_reasons": {
				Type: TypeArray,
				Items: &Schema{
					Type:     TypeObject,
					Required: []string{"habit_id", "name", "reasons"},
					Properties: map[string]*Schema{
						"habit_id": {Type: idType},
						"name":     {Type: TypeString},
						"reasons":  {Type: TypeArray, Items: &Schema{Type: TypeString}},
					},
				},
			},
			"summary": {
				Type:        TypeString,
				Description: "four sections joined with newlines",
			},
			"recommendation": {
				Type:        TypeArray,
				Description: fmt.Sprintf("exactly %d entries, one per input habit, same order and habit_id", len(active)),
				Items: &Schema{
					Type:     TypeObject,
					Required: []string{"habit_id", "name", "start_time", "end_time", "day_of_week"},
					Properties: map[string]*Schema{
						"habit_id":    {Type: idType},
						"name":        {Type: TypeString},
						"start_time":  {Type: TypeString, Description: "HH:MM"},
						"end_time":    {Type: TypeString, Description: "HH:MM"},
						"day_of_week": {Type: TypeArray, Items: &Schema{Type: TypeInteger}},
					},
				},
			},
		},
	}
}

var promptTemplate = template.Must(template.New("report").Parse(`당신은 사용자 맞춤형 습관 코치입니다. 아래는 {{.Profile.Nickname}}의 {{.PeriodLabel}}간 모든 습관 기록입니다.
아래 스키마에 정확히 맞춘 JSON 객체 하나만 출력하세요.

반영 기간: {{.StartDate}} ~ {{.EndDate}}
전체 성공률(참고): {{printf "%.1f" .Overall.SuccessRate}}% ({{.Overall.Successes}}/{{.Overall.Attempts}})

<입력 습관 목록(순서 유지, 각 항목당 추천 1개 필수)>
{{.HabitsJSON}}

<출력 스키마>
{{.SchemaJSON}}

규칙:
- recommendation은 입력 습관 목록의 각 항목에 대해 정확히 1개씩, 총 {{.ExpectedRecommendations}}개 생성하세요.
- recommendation 각 항목의 habit_id는 해당 입력 습관의 habit_id와 동일해야 합니다.
- recommendation 배열의 순서는 입력 습관 목록의 순서를 그대로 따르세요.
- top_failure_reasons는 습관별로 가장 빈도가 높은 상위 {{.TopK}}개 원인을 입력에 존재하는 사유로만 작성하세요.
- summary는 하나의 문자열이며 4개의 내용을 줄바꿈(\n)으로 구분하세요.
- 시간은 HH:MM 형식으로 작성하세요.

<사용자 정보>
이름: {{.Profile.Nickname}}
{{- with .Profile.BirthYear}}
출생연도: {{.}}{{end}}
{{- with .Profile.Age}}
나이: {{.}}{{end}}
{{- with .Profile.Gender}}
성별: {{.}}{{end}}
{{- with .Profile.Job}}
직업: {{.}}{{end}}
{{- with .Profile.Occupation}}
직업: {{.}}{{end}}
{{- with .Profile.Characteristics}}
특징: {{range $i, $c := .}}{{if $i}}, {{end}}{{$c}}{{end}}{{end}}

<습관별 요약>
{{- range .Habits}}
- [{{.HabitID}}] {{.Name}} ({{.StartTime}}~{{.EndTime}}, DOW={{.DayOfWeek}}): {{.Successes}}/{{.Attempts}} ({{printf "%.1f" .SuccessRate}}%)
{{- end}}
`))

func renderPrompt(req GenerationRequest) (string, error) {
	habitsJSON, err := json.MarshalIndent(req.Habits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	periodLabel := "최근 30일"
	if req.Type == domain.ReportWeekly {
		periodLabel = "최근 7일"
	}

	var buf bytes.Buffer
	err = promptTemplate.Execute(&buf, struct {
		GenerationRequest
		PeriodLabel string
		HabitsJSON  string
		SchemaJSON  string
	}{req, periodLabel, string(habitsJSON), string(schemaJSON)})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
