package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

type rendered struct {
	Subject string
	HTML    string
	Text    string
}

// render executes <name>_subject.txt, <name>.html and <name>.txt with data.
func render(name string, data any) (rendered, error) {
	subject, err := renderText(name+"_subject.txt", data)
	if err != nil {
		return rendered{}, fmt.Errorf("render subject: %w", err)
	}
	html, err := renderHTML(name+".html", data)
	if err != nil {
		return rendered{}, fmt.Errorf("render html: %w", err)
	}
	text, err := renderText(name+".txt", data)
	if err != nil {
		return rendered{}, fmt.Errorf("render text: %w", err)
	}
	return rendered{Subject: strings.TrimSpace(subject), HTML: html, Text: text}, nil
}

func renderText(file string, data any) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + file)
	if err != nil {
		return "", err
	}
	t, err := texttemplate.New(file).Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(file string, data any) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + file)
	if err != nil {
		return "", err
	}
	t, err := htmltemplate.New(file).Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
