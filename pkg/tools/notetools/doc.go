// Package notetools provides the actions the model uses to manage the
// user's notes: append_note saves a note and query_notes retrieves the
// chunk of the notes file most similar to a query.
//
// Both actions take a path argument naming the notes directory. The system
// prompt presents that path wrapped in '<' and '>'; the wrapper is stripped
// if the model passes it through, so both "<./notes/>" and "./notes/" are
// accepted.
package notetools

const pathDescription = `Should be a path from the system message.
It is wrapped with '<' and the wrap ends with '>'.
Remove the '<' and '>' from the string before setting parameter.
For example: './path/', not '<./path/>'.`

// Action names as declared to the model.
const (
	AppendNoteName = "append_note"
	QueryNotesName = "query_notes"
)
