/*
Package boletim is a guided interview engine for structured incident reports.

An interview is a fixed sequence of sections. Each section is a small graph of
questions: linear steps, and yes/no gates that either open follow-up questions,
skip the rest of the section or jump ahead. Every answer is checked against a
declarative rule set before the walk moves on, so the engine only ever holds
answers that passed validation.

# Concept

The question graph (Logic) is loaded once and never changes. Each session
(State) is a cursor over that graph plus its answers, versioned on every
mutation and persisted through a SessionStore. The host application owns the
I/O: it shows prompts, collects text and decides what to do with the section
narratives produced by an optional external collaborator.

# Usage

	eng, err := boletim.New("./boletim.yaml")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	start, err := eng.StartSession(ctx)
	if err != nil {
		log.Fatal(err)
	}

	prompt := start.Prompt
	for !prompt.Done {
		fmt.Println(prompt.Text)
		res, err := eng.SubmitAnswer(ctx, start.SessionID, prompt.StepID, readLine())
		if err != nil {
			log.Fatal(err)
		}
		if !res.Accepted {
			fmt.Println(res.Message)
		}
		prompt = res.NextPrompt
	}

A directory path is read with the Loam adapter (one Markdown or JSON document
per section); a file path is read as a single YAML or JSON definition.

# Drafts

Clients may keep a DraftSnapshot of the session and hand it back with
RestoreDraft after a reconnect. The draft replaces the live session only when
its version is strictly greater; otherwise it is rejected with a reason and
nothing changes.
*/
package boletim
