/*
Package domain contains the core domain models of the interview engine.

It defines the static description of an interview (Sections and QuestionNodes
with their declarative Rules and branch specifications), the collected
Answers, the DraftSnapshot exchanged with clients, and the error taxonomy
shared by every layer. This package is kept pure and free of I/O or
persistence concerns.

# Key Entities

  - QuestionNode: One step of a section, with its prompt, rules and branch.
  - Section: An ordered template of QuestionNodes with a designated entry.
  - Answers: Insertion-ordered step answers; overwritten, never deleted.
  - DraftSnapshot: The minimal reconstructable projection of a session.
  - SessionRecord: What a SessionStore persists for a session.
*/
package domain
