package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerForm serves the patient input page.
func registerForm(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, formHTML)
	})
}

const formHTML = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Healthcare Diagnosis and Treatment Recommendations</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;max-width:760px;margin:24px auto;padding:0 16px;color:#111827}
      label{display:block;margin-top:12px;font-weight:600}
      input,select,textarea{width:100%;padding:8px;margin-top:4px;box-sizing:border-box}
      textarea{min-height:90px}
      button{margin-top:16px;padding:10px 18px}
      pre{white-space:pre-wrap;background:#f3f4f6;border-radius:8px;padding:12px}
      .error{color:#b91c1c}
    </style>
  </head>
  <body>
    <h1>Healthcare Diagnosis and Treatment Recommendations</h1>
    <form id="case">
      <label for="gender">Gender</label>
      <select id="gender" name="gender">
        <option value="Male">Male</option>
        <option value="Female">Female</option>
        <option value="Other">Other</option>
      </select>
      <label for="age">Age</label>
      <input id="age" name="age" type="number" min="0" max="130" />
      <label for="symptoms">Symptoms</label>
      <textarea id="symptoms" name="symptoms"></textarea>
      <label for="medical_history">Medical history</label>
      <textarea id="medical_history" name="medical_history"></textarea>
      <button type="submit">Get diagnosis and treatment plan</button>
    </form>
    <p id="status"></p>
    <pre id="result" hidden></pre>
    <a id="download" hidden>Download as Word document</a>
    <script>
      const form = document.getElementById('case');
      const status = document.getElementById('status');
      const result = document.getElementById('result');
      const link = document.getElementById('download');
      form.addEventListener('submit', async (ev) => {
        ev.preventDefault();
        status.className = '';
        status.textContent = 'Working on it, this can take a few minutes...';
        result.hidden = true;
        link.hidden = true;
        try {
          const resp = await fetch('/diagnose', {method: 'POST', body: new URLSearchParams(new FormData(form))});
          const body = await resp.json();
          if (!resp.ok) throw new Error(body.error || resp.statusText);
          status.textContent = '';
          result.textContent = body.result;
          result.hidden = false;
          link.href = body.document_id ? '/download/' + body.document_id : body.download_link;
          link.hidden = false;
        } catch (err) {
          status.className = 'error';
          status.textContent = err.message;
        }
      });
    </script>
  </body>
</html>`
