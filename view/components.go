package view

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Element ids the page exposes for the list, form, inputs and banner.
const (
	ListID     = "activities-list"
	FormID     = "signup-form"
	EmailID    = "email"
	ActivityID = "activity"
	MessageID  = "message"
)

// Message is the banner as the page shows it.
type Message struct {
	Visible   bool
	Text      string
	Kind      string
	RemainsMS int64
}

// PageData is everything the full page renders.
type PageData struct {
	Title     string
	List      List
	ListError string
	Options   []Option
	Email     string
	Selected  string
	Message   Message
}

// ConfirmData is the unregister confirmation prompt.
type ConfirmData struct {
	Title    string
	Prompt   string
	Activity string
	Email    string
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// render writes the built markup in one call so partial output is never sent for a failed build.
func render(build func(b *strings.Builder) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if err := build(&b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ConfirmURL is the address of the confirmation prompt for a control.
func ConfirmURL(c Control) string {
	q := url.Values{}
	q.Set("activity", c.Activity)
	q.Set("email", c.Email)
	return "/unregister?" + q.Encode()
}

// ActivityList renders the contents of the list container: either the
// activity cards or, when listErr is set, the error in their place.
func ActivityList(list List, listErr string) templ.Component {
	return render(func(b *strings.Builder) error {
		if listErr != "" {
			fmt.Fprintf(b, `<p class="error">%s</p>`, esc(listErr))
			return nil
		}
		for _, e := range list.Entries {
			writeCard(b, e)
		}
		return nil
	})
}

func writeCard(b *strings.Builder, e Entry) {
	b.WriteString(`<div class="activity-card">`)
	fmt.Fprintf(b, `<h4>%s</h4>`, esc(e.Name))
	fmt.Fprintf(b, `<p><strong>Description:</strong> %s</p>`, esc(e.Description))
	fmt.Fprintf(b, `<p><strong>Schedule:</strong> %s</p>`, esc(e.Schedule))
	fmt.Fprintf(b, `<p><strong>Capacity:</strong> %s</p>`, esc(e.Capacity))
	b.WriteString(`<div class="participants-section"><p><strong>Current Participants:</strong></p>`)
	if e.Empty() {
		fmt.Fprintf(b, `<p class="no-participants">%s</p>`, esc(NoParticipants))
	} else {
		b.WriteString(`<div class="participants-list">`)
		for _, c := range e.Participants {
			fmt.Fprintf(b, `<div class="participant-item"><span class="participant-email">%s</span>`, esc(c.Email))
			fmt.Fprintf(b, `<a class="delete-icon" href="%s" data-activity="%s" data-email="%s" title="Unregister">❌</a>`,
				esc(ConfirmURL(c)), esc(c.Activity), esc(c.Email))
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></div>`)
}

// ActivitySelect renders the selector options, marking selected.
func ActivitySelect(options []Option, selected string) templ.Component {
	return render(func(b *strings.Builder) error {
		b.WriteString(`<option value="">-- Select an activity --</option>`)
		for _, o := range options {
			attr := ""
			if o.Value == selected {
				attr = ` selected`
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, esc(o.Value), attr, esc(o.Label))
		}
		return nil
	})
}

// MessageBanner renders the status banner. A hidden banner is still emitted
// so the element id is always present.
func MessageBanner(m Message) templ.Component {
	return render(func(b *strings.Builder) error {
		if !m.Visible {
			fmt.Fprintf(b, `<div id="%s" class="message hidden"></div>`, MessageID)
			return nil
		}
		fmt.Fprintf(b, `<div id="%s" class="message %s" data-hide-after-ms="%d">%s</div>`,
			MessageID, esc(m.Kind), m.RemainsMS, esc(m.Text))
		return nil
	})
}

// Page renders the whole document.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := pageTitle(data.Title)
		parts := []templ.Component{
			documentStart(title),
			pageHeader(title),
			raw("    <main>\n"),
			activitiesSection(data.List, data.ListError),
			signupSection(data),
			raw("    </main>\n"),
			bannerScript(),
			documentEnd(),
		}
		return renderAll(ctx, w, parts)
	})
}

// ConfirmPage renders the yes/no prompt shown before an unregister request.
func ConfirmPage(data ConfirmData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		parts := []templ.Component{
			documentStart(pageTitle(data.Title)),
			raw("    <main>\n"),
			confirmForm(data),
			raw("    </main>\n"),
			documentEnd(),
		}
		return renderAll(ctx, w, parts)
	})
}

func pageTitle(title string) string {
	if title == "" {
		return "Activities"
	}
	return title
}

func renderAll(ctx context.Context, w io.Writer, parts []templ.Component) error {
	for _, c := range parts {
		if err := c.Render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// raw writes trusted markup.
func raw(markup string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, markup)
		return err
	})
}

func documentStart(title string) templ.Component {
	return render(func(b *strings.Builder) error {
		b.WriteString("<!doctype html>\n<html lang=\"en\">\n  <head>\n")
		b.WriteString("    <meta charset=\"utf-8\"/>\n")
		b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"/>\n")
		fmt.Fprintf(b, "    <title>%s</title>\n", esc(title))
		b.WriteString("    <link rel=\"stylesheet\" href=\"/static/styles.css\"/>\n")
		b.WriteString("  </head>\n  <body>\n")
		return nil
	})
}

func documentEnd() templ.Component {
	return raw("  </body>\n</html>\n")
}

func pageHeader(title string) templ.Component {
	return render(func(b *strings.Builder) error {
		fmt.Fprintf(b, "    <header><h1>%s</h1></header>\n", esc(title))
		return nil
	})
}

func activitiesSection(list List, listErr string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return renderAll(ctx, w, []templ.Component{
			raw("      <section id=\"activities-container\">\n        <h3>Available Activities</h3>\n"),
			raw(`        <div id="` + ListID + `">`),
			ActivityList(list, listErr),
			raw("</div>\n      </section>\n"),
		})
	})
}

func signupSection(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return renderAll(ctx, w, []templ.Component{
			raw("      <section id=\"signup-container\">\n        <h3>Sign Up for an Activity</h3>\n"),
			signupForm(data),
			MessageBanner(data.Message),
			raw("\n      </section>\n"),
		})
	})
}

func signupForm(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return renderAll(ctx, w, []templ.Component{
			raw(`        <form id="` + FormID + `" method="post" action="/signup">` + "\n"),
			emailField(data.Email),
			raw("          <div class=\"form-group\">\n"),
			raw(`            <label for="` + ActivityID + `">Select Activity:</label>` + "\n"),
			raw(`            <select id="` + ActivityID + `" name="activity">`),
			ActivitySelect(data.Options, data.Selected),
			raw("</select>\n          </div>\n"),
			raw("          <button type=\"submit\">Sign Up</button>\n        </form>\n        "),
		})
	})
}

func emailField(email string) templ.Component {
	return render(func(b *strings.Builder) error {
		b.WriteString("          <div class=\"form-group\">\n")
		fmt.Fprintf(b, "            <label for=\"%s\">Student Email:</label>\n", EmailID)
		fmt.Fprintf(b, "            <input type=\"email\" id=\"%s\" name=\"email\" value=\"%s\" placeholder=\"your-email@mergington.edu\"/>\n",
			EmailID, esc(email))
		b.WriteString("          </div>\n")
		return nil
	})
}

// bannerScript hides the banner once its data-hide-after-ms delay has passed.
func bannerScript() templ.Component {
	return raw(`    <script>
      const banner = document.getElementById("` + MessageID + `");
      const ms = Number(banner.dataset.hideAfterMs || 0);
      if (ms > 0) { setTimeout(() => banner.classList.add("hidden"), ms); }
    </script>
`)
}

func confirmForm(data ConfirmData) templ.Component {
	return render(func(b *strings.Builder) error {
		b.WriteString("      <form class=\"confirm\" method=\"post\" action=\"/unregister\">\n")
		fmt.Fprintf(b, "        <p>%s</p>\n", esc(data.Prompt))
		fmt.Fprintf(b, "        <input type=\"hidden\" name=\"activity\" value=\"%s\"/>\n", esc(data.Activity))
		fmt.Fprintf(b, "        <input type=\"hidden\" name=\"email\" value=\"%s\"/>\n", esc(data.Email))
		b.WriteString("        <button type=\"submit\" name=\"confirm\" value=\"yes\">Yes</button>\n")
		b.WriteString("        <button type=\"submit\" name=\"confirm\" value=\"no\">No</button>\n")
		b.WriteString("      </form>\n")
		return nil
	})
}
