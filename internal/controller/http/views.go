package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Instagram DM Automation</title>
    <style>
        body { margin: 0; font-family: system-ui, sans-serif; background: #fafafa; color: #111; }
        header { display: flex; justify-content: space-between; align-items: center; padding: 0 2rem; height: 4rem; border-bottom: 1px solid #ddd; background: #fff; }
        header nav { display: flex; gap: 1rem; align-items: center; }
        main { max-width: 72rem; margin: 0 auto; padding: 2rem; }
        a { color: #6d28d9; text-decoration: none; }
        .brand { font-weight: 700; color: #111; }
        .notice { max-width: 72rem; margin: 1rem auto 0; padding: .75rem 1rem; border-radius: .5rem; }
        .notice-success { background: #dcfce7; }
        .notice-error { background: #fee2e2; }
        .notice-info { background: #e0f2fe; }
        .card { background: #fff; border: 1px solid #ddd; border-radius: .5rem; padding: 1rem; margin-bottom: 1rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(14rem, 1fr)); gap: 1rem; }
        .stat { font-size: 1.75rem; font-weight: 700; }
        .muted { color: #666; font-size: .875rem; }
        .accounts a { margin-right: .75rem; }
        .accounts a.selected { font-weight: 700; text-decoration: underline; }
        .thread { display: flex; flex-direction: column; gap: .5rem; }
        .message { max-width: 70%; padding: .5rem .75rem; border-radius: .75rem; background: #eee; }
        .message.outgoing { align-self: flex-end; background: #6d28d9; color: #fff; }
        .badge { font-size: .75rem; padding: .1rem .4rem; border-radius: .25rem; background: #eee; }
        .badge-active { background: #dcfce7; }
        .badge-paused { background: #fef9c3; }
        form.inline { display: inline; }
        label { display: block; margin-top: .75rem; }
        input[type=text], input[type=number], textarea, select { width: 100%; padding: .4rem; box-sizing: border-box; }
        .empty { text-align: center; padding: 4rem 0; }
    </style>
</head>
<body>
<header>
    <a class="brand" href="/">Instagram DM Automation</a>
    {{with .User}}
    <nav>
        <a href="/dashboard">Dashboard</a>
        <a href="/dashboard/inbox">Inbox</a>
        <a href="/dashboard/automation">Automation</a>
        <span class="muted">{{.DisplayName}}</span>
        <form class="inline" method="post" action="/logout"><button type="submit">Logout</button></form>
    </nav>
    {{end}}
</header>
{{range .Notices}}<div class="notice notice-{{.Kind}}" id="notice-{{.ID}}">{{.Text}}</div>
{{end}}
<main>
{{template "content" .}}
</main>
</body>
</html>
{{end}}

{{define "connect_prompt"}}
<section class="empty">
    <h2>No Connected Accounts</h2>
    <p class="muted">{{.}}</p>
    <a href="/dashboard/connect">Connect Account</a>
</section>
{{end}}

{{define "accounts_unavailable"}}
<section class="empty">
    <h2>Accounts unavailable</h2>
    <p class="muted">Your connected accounts could not be loaded.</p>
    <a href="{{.}}">Try again</a>
</section>
{{end}}

{{define "account_tabs"}}
{{$selected := .Selected}}{{$path := .Path}}
<nav class="accounts">
    {{range .Accounts}}<a href="{{$path}}?account={{.ID}}"{{if eq .ID $selected}} class="selected"{{end}}>{{.Handle}}</a>{{end}}
</nav>
{{end}}`

const homeTemplate = `{{define "content"}}
<section class="empty">
    <h1>Automate your Instagram DMs</h1>
    <p class="muted">Connect your Instagram Business account, read your inbox and set up keyword auto-replies.</p>
    <form method="post" action="/login">
        <button type="submit">Login with Facebook</button>
    </form>
</section>
{{end}}`

const dashboardTemplate = `{{define "content"}}
{{with .Data}}
{{if not .Overview.AccountsLoaded}}
    {{template "accounts_unavailable" "/dashboard"}}
{{else if not .Overview.Accounts}}
    {{template "connect_prompt" "Connect an Instagram Business account to get started"}}
{{else}}
<h1>Dashboard</h1>
{{template "account_tabs" .Tabs}}
<p><a href="/dashboard/connect">Connect another account</a></p>

{{if .Overview.HasAccount}}
{{$acc := .Overview.Account}}
<div class="card">
    <strong>{{$acc.Handle}}</strong>
    <span class="muted">connected {{$acc.CreatedAt.Format "2006-01-02"}}</span>
    <form class="inline" method="post" action="/dashboard/accounts/{{$acc.ID}}/disconnect">
        <button type="submit">Disconnect</button>
    </form>
</div>

<div class="grid">
    <div class="card"><div class="muted">Conversations</div><div class="stat">{{len .Overview.Conversations}}</div></div>
    <div class="card"><div class="muted">Automation rules</div><div class="stat">{{.Overview.Summary.TotalRules}}</div><div class="muted">{{.Overview.Summary.ActiveRules}} active</div></div>
    <div class="card"><div class="muted">Triggers</div><div class="stat">{{.Overview.Summary.TotalTriggers}}</div></div>
    <div class="card"><div class="muted">Success rate</div><div class="stat">{{percent .Overview.Summary.SuccessRate}}</div></div>
</div>

<div class="grid">
    <div class="card">
        <h2>Recent conversations</h2>
        {{range .Recent}}
        <p><a href="/dashboard/inbox?account={{$acc.ID}}&conversation={{.ID}}">{{.Title}}</a>
           <span class="muted">{{.LastMessageTime.Format "2006-01-02 15:04"}}</span>
           {{if .UnreadCount}}<span class="badge">{{.UnreadCount}} unread</span>{{end}}</p>
        {{else}}
        <p class="muted">No conversations yet</p>
        {{end}}
        <a href="/dashboard/inbox?account={{$acc.ID}}">Open inbox</a>
    </div>
    <div class="card">
        <h2>Automation rules</h2>
        {{range .Overview.Rules}}
        <p>{{.Name}} <span class="badge badge-{{.Status}}">{{.Status}}</span> <span class="muted">{{.TriggerType.Label}}</span></p>
        {{else}}
        <p class="muted">No rules yet</p>
        {{end}}
        <a href="/dashboard/automation?account={{$acc.ID}}">Manage rules</a>
    </div>
</div>
{{end}}
{{end}}
{{end}}
{{end}}`

const connectTemplate = `{{define "content"}}
<h1>Connect Instagram Account</h1>
<p class="muted">Business accounts linked to your Facebook pages.</p>
{{range .Data}}
<div class="card">
    <strong>{{if .Username}}@{{.Username}}{{else}}{{.InstagramBusinessAccountID}}{{end}}</strong>
    {{with .PageName}}<span class="muted">page {{.}}</span>{{end}}
    <form class="inline" method="post" action="/dashboard/connect">
        <input type="hidden" name="instagram_business_account_id" value="{{.InstagramBusinessAccountID}}">
        <button type="submit">Connect</button>
    </form>
</div>
{{else}}
<section class="empty">
    <h2>No Instagram Business accounts found</h2>
    <p class="muted">Link an Instagram Business account to one of your Facebook pages and try again.</p>
</section>
{{end}}
<p><a href="/dashboard">Back to Dashboard</a></p>
{{end}}`

const inboxTemplate = `{{define "content"}}
{{with .Data}}
{{if not .Inbox.AccountsLoaded}}
    {{template "accounts_unavailable" "/dashboard/inbox"}}
{{else if not .Inbox.Accounts}}
    {{template "connect_prompt" "Connect an Instagram account to view your inbox"}}
{{else}}
<h1>Inbox</h1>
{{template "account_tabs" .Tabs}}
{{if .Inbox.HasAccount}}
{{$acc := .Inbox.Account}}{{$conv := .Inbox.Conversation}}
<div class="grid">
    <div class="card">
        <h2>Conversations</h2>
        {{range .Inbox.Conversations}}
        <p><a href="/dashboard/inbox?account={{$acc.ID}}&conversation={{.ID}}">{{if eq .ID $conv.ID}}<strong>{{.Title}}</strong>{{else}}{{.Title}}{{end}}</a>
           {{if .UnreadCount}}<span class="badge">{{.UnreadCount}}</span>{{end}}</p>
        {{else}}
        <p class="muted">No conversations yet</p>
        {{end}}
    </div>
    <div class="card">
        {{if .Inbox.HasThread}}
        <h2>{{$conv.Title}}</h2>
        <div class="thread">
            {{range .Inbox.Messages}}
            <div class="message{{if .Outgoing}} outgoing{{end}}" id="message-{{.Key}}">
                {{if .Text}}{{.Text}}{{else}}<em>[{{.Type}}]</em>{{end}}
                <div class="muted">{{.SentAt.Format "2006-01-02 15:04"}}{{if .IsAutomated}} · automated{{end}}</div>
            </div>
            {{else}}
            <p class="muted">No messages yet</p>
            {{end}}
        </div>
        <form method="post" action="/dashboard/inbox/send">
            <input type="hidden" name="account" value="{{$acc.ID}}">
            <input type="hidden" name="conversation" value="{{$conv.ID}}">
            <input type="hidden" name="recipient" value="{{$conv.ParticipantID}}">
            <label>Reply <textarea name="message_text" rows="3" maxlength="{{.MaxLength}}" required></textarea></label>
            <button type="submit">Send</button>
        </form>
        {{else}}
        <p class="muted">Select a conversation</p>
        {{end}}
    </div>
</div>
{{end}}
{{end}}
{{end}}
{{end}}`

const automationTemplate = `{{define "content"}}
{{with .Data}}
{{if not .AccountsLoaded}}
    {{template "accounts_unavailable" "/dashboard/automation"}}
{{else if not .Accounts}}
    {{template "connect_prompt" "Connect an Instagram account to create automation rules"}}
{{else}}
<h1>Automation</h1>
{{template "account_tabs" .Tabs}}
{{if .HasAccount}}
<p>
    <a href="/dashboard/automation/new?account={{.Account.ID}}">Create rule</a>
    {{if .ExportEnabled}}
    <form class="inline" method="post" action="/dashboard/automation/export?account={{.Account.ID}}">
        <button type="submit">Export rules</button>
    </form>
    {{end}}
</p>
{{with .Overview}}
<div class="grid">
    <div class="card"><div class="muted">Total rules</div><div class="stat">{{.Summary.TotalRules}}</div>
        <div class="muted">{{.Summary.ActiveRules}} active · {{.Summary.InactiveRules}} inactive · {{.Summary.PausedRules}} paused</div></div>
    <div class="card"><div class="muted">Triggers</div><div class="stat">{{.Summary.TotalTriggers}}</div></div>
    <div class="card"><div class="muted">Successful replies</div><div class="stat">{{.Summary.TotalSuccess}}</div><div class="muted">{{.Summary.TotalFailures}} failed</div></div>
    <div class="card"><div class="muted">Success rate</div><div class="stat">{{percent .Summary.SuccessRate}}</div></div>
</div>
{{range .Rules}}
<div class="card" id="rule-{{.ID}}">
    <strong>{{.Name}}</strong>
    <span class="badge badge-{{.Status}}">{{.Status}}</span>
    <span class="badge">{{.TriggerType.Label}}</span>
    <span class="muted">priority {{.Priority}}</span>
    {{with .Description}}<p class="muted">{{.}}</p>{{end}}
    {{if .TriggerKeywords}}<p>Keywords: {{join .TriggerKeywords ", "}}</p>{{end}}
    <p>Reply{{if .ReplyDelaySeconds}} after {{.ReplyDelaySeconds}}s{{end}}: {{.ReplyMessage}}</p>
    <p class="muted">Triggered {{.TriggeredCount}} · succeeded {{.SuccessCount}} · failed {{.FailureCount}} · last {{.LastTriggeredAt.Format "2006-01-02 15:04"}}</p>
    <form class="inline" method="post" action="/dashboard/automation/{{.ID}}/toggle">
        <input type="hidden" name="account" value="{{.AccountID}}">
        <button type="submit">{{if .IsActive}}Deactivate{{else}}Activate{{end}}</button>
    </form>
    <a href="/dashboard/automation/{{.ID}}/edit">Edit</a>
    <form class="inline" method="post" action="/dashboard/automation/{{.ID}}/delete">
        <input type="hidden" name="account" value="{{.AccountID}}">
        <label class="inline"><input type="checkbox" name="confirm" value="yes" required> confirm</label>
        <button type="submit">Delete</button>
    </form>
</div>
{{else}}
<section class="empty">
    <h2>No automation rules yet</h2>
    <p class="muted">Create a rule to reply to messages automatically.</p>
</section>
{{end}}
{{end}}
{{end}}
{{end}}
{{end}}
{{end}}`

const ruleFormTemplate = `{{define "content"}}
{{with .Data}}
<h1>{{if .Editing}}Edit rule{{else}}Create rule{{end}}</h1>
<form class="card" method="post" action="{{.Action}}">
    {{if .AccountID}}<input type="hidden" name="account" value="{{.AccountID}}">{{end}}
    <label>Name <input type="text" name="name" value="{{.Form.Name}}" maxlength="{{.MaxName}}" required></label>
    <label>Description <input type="text" name="description" value="{{.Form.Description}}"></label>
    <label>Trigger
        <select name="trigger_type">
            {{$current := .Form.TriggerType}}
            {{range .TriggerTypes}}<option value="{{.}}"{{if eq . $current}} selected{{end}}>{{.Label}}</option>{{end}}
        </select>
    </label>
    <label>Keywords (comma separated) <input type="text" name="trigger_keywords" value="{{.Form.TriggerKeywords}}" placeholder="hi, hello, price"></label>
    <label>Reply message <textarea name="reply_message" rows="4" maxlength="{{.MaxReply}}" required>{{.Form.ReplyMessage}}</textarea></label>
    <label>Reply delay (seconds) <input type="number" name="reply_delay_seconds" min="0" value="{{.Form.ReplyDelaySeconds}}"></label>
    <label>Priority <input type="number" name="priority" value="{{.Form.Priority}}"></label>
    <p><button type="submit">{{if .Editing}}Save changes{{else}}Create rule{{end}}</button>
       <a href="{{.Back}}">Cancel</a></p>
</form>
{{end}}
{{end}}`

// pageTemplates maps page names to their content templates
var pageTemplates = map[string]string{
	"home":       homeTemplate,
	"dashboard":  dashboardTemplate,
	"connect":    connectTemplate,
	"inbox":      inboxTemplate,
	"automation": automationTemplate,
	"rule_form":  ruleFormTemplate,
}

// Renderer holds one parsed template set per page
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page against the shared layout
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"join":    strings.Join,
	}

	base, err := template.New("layout").Funcs(funcs).Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageTemplates))}
	for name, content := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		if _, err := t.Parse(content); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		r.pages[name] = t
	}

	return r, nil
}

// Render executes a page into a buffer and writes it with status
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	t, ok := r.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return fmt.Errorf("executing %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

