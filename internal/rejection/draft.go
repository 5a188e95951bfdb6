// Package rejection 为未通过的申请起草拒绝邮件
package rejection

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/blues/fundcrm/internal/llm"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/yuin/goldmark"
)

const feedbackSystemPrompt = `You help a venture fund write short, kind, specific rejection feedback.
Write one paragraph of 3-5 sentences in plain prose. No greeting, no sign-off, no markdown.
Follow the structure and tone of the template you are given, replacing bracketed or braced
placeholders with specifics from the application. Never promise future investment.`

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Email 拒绝邮件草稿
type Email struct {
	To        string   `json:"to"`
	Subject   string   `json:"subject"`
	Text      string   `json:"text"`
	HTML      string   `json:"html"`
	Reasons   []string `json:"reasons"`
	Generated bool     `json:"generated"` // 反馈段落是否由模型生成
}

// Drafter 拒绝邮件起草
type Drafter struct {
	org string
	gen llm.TextGenerator
	md  goldmark.Markdown
}

// NewDrafter 创建起草器，gen 为 nil 时只使用模板
func NewDrafter(org string, gen llm.TextGenerator) *Drafter {
	if org == "" {
		org = "SAIF"
	}
	return &Drafter{org: org, gen: gen, md: goldmark.New()}
}

// Draft 生成邮件：问候、固定开场、反馈段落、祝福、署名。
// fields 用于填充模板占位符，未提供的占位符保留为 [占位符] 供人工修改。
func (d *Drafter) Draft(ctx context.Context, app *model.Application, reasonKeys []string, fields map[string]string) (*Email, error) {
	if app == nil || strings.TrimSpace(app.CompanyName) == "" {
		return nil, fmt.Errorf("application with a company name is required")
	}

	feedback, generated := d.feedback(ctx, app, reasonKeys, fields)
	text := strings.Join([]string{
		greeting(app),
		d.opening(app),
		feedback,
		fmt.Sprintf("We wish you the best as you continue %s.", closingWish(app.Description)),
		"Best,\nThe " + d.org + " Team",
	}, "\n\n") + "\n"

	var html bytes.Buffer
	if err := d.md.Convert([]byte(text), &html); err != nil {
		return nil, fmt.Errorf("render rejection email: %w", err)
	}

	return &Email{
		To:        app.FounderEmail,
		Subject:   fmt.Sprintf("Your %s application: %s", d.org, app.CompanyName),
		Text:      text,
		HTML:      html.String(),
		Reasons:   reasonKeys,
		Generated: generated,
	}, nil
}

func greeting(app *model.Application) string {
	if name := strings.TrimSpace(app.FounderNames); name != "" {
		return "Hi " + name + ","
	}
	return "Hi there,"
}

func (d *Drafter) opening(app *model.Application) string {
	return fmt.Sprintf("Thanks very much for expressing interest in being part of %s and our efforts to create a better future with AI. "+
		"Unfortunately at this time we don't think that %s fits within the criteria we are using for our fund.", d.org, app.CompanyName)
}

// feedback 只使用第一个理由
func (d *Drafter) feedback(ctx context.Context, app *model.Application, reasonKeys []string, fields map[string]string) (string, bool) {
	if len(reasonKeys) == 0 {
		return fmt.Sprintf("While we appreciate your submission, %s does not currently align with our investment criteria.", app.CompanyName), false
	}

	reason, ok := Lookup(reasonKeys[0])
	if !ok {
		return fmt.Sprintf("The project does not currently align with %s's focus on companies building practical technologies "+
			"that directly improve safety and security in real-world AI systems.", d.org), false
	}

	filled := d.fill(reason.Template, app, fields)
	if d.gen == nil {
		return filled, false
	}

	prompt := fmt.Sprintf("Company: %s\nDescription: %s\nReason: %s\nTemplate:\n%s",
		app.CompanyName, app.Description, reason.Summary, filled)
	text, err := d.gen.Generate(ctx, feedbackSystemPrompt, prompt)
	if err != nil {
		logger.Warn("Rejection feedback generation failed for %s, using template: %v", app.CompanyName, err)
		return filled, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return filled, false
	}
	return text, true
}

// fill 替换占位符，company_name 与 org 总是可用
func (d *Drafter) fill(template string, app *model.Application, fields map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		switch key {
		case "company_name":
			return app.CompanyName
		case "org":
			return d.org
		}
		if v := strings.TrimSpace(fields[key]); v != "" {
			return v
		}
		return "[" + strings.ReplaceAll(key, "_", " ") + "]"
	})
}

// closingWish 根据公司描述选择结尾祝福
func closingWish(description string) string {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "building") || strings.Contains(desc, "develop"):
		return "building the company"
	case strings.Contains(desc, "platform"):
		return "developing the platform"
	case strings.Contains(desc, "research"):
		return "developing your ideas"
	case strings.Contains(desc, "product"):
		return "building and refining the product"
	default:
		return "developing your ideas"
	}
}
