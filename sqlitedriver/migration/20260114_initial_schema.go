package migration

import "database/sql"

type M20260114InitialSchema struct {
}

func (m *M20260114InitialSchema) Name() string {
	return "20260114_initial_schema"
}

func (m *M20260114InitialSchema) Apply(tx *sql.Tx) error {
	const q = `
-- Denylisted chat members.
-- A row is written when a verification challenge is issued, so that a
-- crash mid-challenge still leaves the member restricted, and again when
-- a challenge resolves unfavorably. Rows for a (chat_id, user_id) pair
-- are removed together when the member passes verification.
-- Duplicate rows for the same pair are allowed.
create table denylist (
    chat_id      integer not null,
    user_id      integer not null,
    handle       text    not null,
    display_name text    not null,
    created_ts   integer default (strftime('%s', 'now')) not null
);

create index denylist_chat_user_index
    on denylist (chat_id, user_id);
	`

	_, err := tx.Exec(q)
	return err
}

func (m *M20260114InitialSchema) Revert(tx *sql.Tx) error {
	const q = `
drop table denylist;
	`

	_, err := tx.Exec(q)
	return err
}
