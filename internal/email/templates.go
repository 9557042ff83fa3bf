package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const (
	TemplateNotification = "notification"
	TemplateOtp          = "otp"
)

var defaultTemplates = map[string]string{
	TemplateNotification: `<h2>{{.Title}}</h2><p>{{.Message}}</p>{{if .Link}}<p><a href="{{.Link}}">Open TrekHub</a></p>{{end}}`,
	TemplateOtp:          `<p>Your verification code is <b>{{.Code}}</b>.</p><p>It expires at {{.ExpiresAt}}.</p>`,
}

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер с шаблонами уведомлений по умолчанию
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, body := range defaultTemplates {
		// встроенные шаблоны проверяются тестами
		_ = tm.AddTemplate(name, body)
	}
	return tm
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}
