package mysql

const insertSafariSQL = `
INSERT INTO safaris (code, doc, popular)
VALUES (?, ?, ?)
`

const updateSafariSQL = `
UPDATE safaris
SET doc = ?, popular = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const deleteSafariSQL = `DELETE FROM safaris WHERE id = ?`

const upsertFromCMSSQL = `
INSERT INTO safaris (code, doc, popular)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  doc        = VALUES(doc),
  popular    = VALUES(popular),
  updated_at = CURRENT_TIMESTAMP
`

const existsByCodeSQL = `SELECT 1 FROM safaris WHERE code = ? LIMIT 1`

const insertMissSQL = `
INSERT INTO ingest_misses (code, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP, http_status = VALUES(http_status), reason = VALUES(reason)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Popular records first, then newest. The same order feeds the catalog's
// default "popularity" sort, which leaves input order untouched.
const listRowsSQL = `
SELECT id, code, doc
FROM safaris
ORDER BY popular DESC, created_at DESC, id DESC
`

const getRowByCodeSQL = `
SELECT id, code, doc
FROM safaris
WHERE code = ?
`

// Editorial content is authored in es/en only, so the tips table carries
// flat per-locale columns instead of a locale dict.
const getTravelTipSQL = `
SELECT title_en, title_es, intro_en, intro_es,
       items_en, items_es,
       cta_label_en, cta_label_es, cta_href
FROM travel_tips
WHERE country = ? AND section = ?
`
