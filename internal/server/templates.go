package server

import (
	"html/template"
	"net/http"

	"github.com/avolkov/website/internal/model"
	"github.com/avolkov/website/internal/ranking"
)

// The real site renders MDX content through its front-end build; these
// templates cover only the server-rendered auth and utility pages.
var pageTmpl = template.Must(template.New("pages").Parse(`
{{define "layout_head"}}<!DOCTYPE html><html><head><title>{{.}}</title></head><body>{{end}}
{{define "layout_foot"}}</body></html>{{end}}

{{define "home"}}{{template "layout_head" "Home"}}
{{if .User}}<p>Signed in as {{.User.Email}}.</p><form method="post" action="/logout"><button>Sign out</button></form>
{{else}}<p><a href="/login">Sign in</a></p>{{end}}
{{template "layout_foot"}}{{end}}

{{define "login"}}{{template "layout_head" "Sign in"}}
<form method="post" action="/auth/magic-link">
<label>Email <input type="email" name="email" required></label>
<button>Email me a sign-in link</button>
</form>
{{template "layout_foot"}}{{end}}

{{define "link_sent"}}{{template "layout_head" "Check your email"}}
<p>If an account exists for that address, a sign-in link is on its way.</p>
{{template "layout_foot"}}{{end}}

{{define "link_error"}}{{template "layout_head" "Sign-in failed"}}
<p>{{.Message}}</p>
<p><a href="/login">Back to sign in</a></p>
{{template "layout_foot"}}{{end}}

{{define "post"}}{{template "layout_head" .Slug}}
<article data-slug="{{.Slug}}"></article>
{{template "layout_foot"}}{{end}}

{{define "admin"}}{{template "layout_head" "Admin"}}
<p>Welcome, {{.User.Email}}.</p>
<h2>Most-read posts</h2>
<ol>{{range .Rankings}}<li>{{.Slug}} ({{.Reads}})</li>{{end}}</ol>
{{template "layout_foot"}}{{end}}
`))

type page interface{ template() string }

type homePage struct{ User *model.User }

func (homePage) template() string { return "home" }

type loginPage struct{}

func (loginPage) template() string { return "login" }

type linkSentPage struct{}

func (linkSentPage) template() string { return "link_sent" }

type linkErrorPage struct{ Message string }

func (linkErrorPage) template() string { return "link_error" }

type postPage struct{ Slug string }

func (postPage) template() string { return "post" }

type adminPage struct {
	User     *model.User
	Rankings []ranking.Entry
}

func (adminPage) template() string { return "admin" }

func renderPage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.ExecuteTemplate(w, p.template(), p)
}
