package notify

import (
	"errors"
	"testing"

	"condo-app/unitimport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (s *captureSender) DialAndSend(m ...*gomail.Message) error {
	s.sent = append(s.sent, m...)
	return s.err
}

func TestImportFinished(t *testing.T) {
	sender := &captureSender{}
	n := NewMailNotifier(sender, "noreply@condo.test", []string{"admin@condo.test"})

	result := unitimport.Result{
		Outcome: unitimport.OutcomeRejected,
		Total:   2,
		Message: "Import rejected",
		Errors:  []unitimport.RowResult{{Row: 3, UnitCode: "<b>102</b>", Messages: []string{"holder_name is required"}}},
	}
	require.NoError(t, n.ImportFinished("Los Robles", "unidades.xlsx", result))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"Unit import rejected for Los Robles"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"admin@condo.test"}, msg.GetHeader("To"))


	body := importBody("Los Robles", "unidades.xlsx", result)
	assert.Contains(t, body, "<li>Row 3 (&lt;b&gt;102&lt;/b&gt;): holder_name is required</li>")
	assert.Contains(t, body, "File: unidades.xlsx")
}

func TestImportFinishedSubjects(t *testing.T) {
	assert.Equal(t, "Unit import completed for A", importSubject("A", unitimport.Result{Outcome: unitimport.OutcomeSuccess}))
	assert.Equal(t, "Unit import stopped for A", importSubject("A", unitimport.Result{Outcome: unitimport.OutcomePartialFailure}))
}

func TestImportFinishedSendError(t *testing.T) {
	n := NewMailNotifier(&captureSender{err: errors.New("smtp down")}, "a@b.c", []string{"d@e.f"})

	err := n.ImportFinished("A", "", unitimport.Result{})

	assert.ErrorContains(t, err, "smtp down")
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *MailNotifier

	assert.NoError(t, n.ImportFinished("A", "f.xlsx", unitimport.Result{}))
}
