package postgres

const gigColumns = `slug, band_name, year, city, date, venue,
       collection_point, collection_time, capacity, price, image, description`

const createGigsTableSQL = `
CREATE TABLE IF NOT EXISTS gigs (
  slug             TEXT PRIMARY KEY,
  band_name        TEXT NOT NULL,
  year             INTEGER NOT NULL DEFAULT 0,
  city             TEXT NOT NULL,
  date             TEXT NOT NULL DEFAULT '',
  venue            TEXT NOT NULL DEFAULT '',
  collection_point TEXT NOT NULL DEFAULT '',
  collection_time  TEXT NOT NULL DEFAULT '',
  capacity         INTEGER NOT NULL DEFAULT 0,
  price            NUMERIC(10,2) NOT NULL DEFAULT 0,
  image            TEXT NOT NULL DEFAULT '',
  description      TEXT NOT NULL DEFAULT ''
)
`

const getGigSQL = `
SELECT ` + gigColumns + `
FROM gigs WHERE slug = $1
`

const listGigsSQL = `
SELECT ` + gigColumns + `
FROM gigs
ORDER BY date, slug
`

const upsertGigSQL = `
INSERT INTO gigs (` + gigColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (slug) DO UPDATE SET
  band_name=EXCLUDED.band_name, year=EXCLUDED.year, city=EXCLUDED.city,
  date=EXCLUDED.date, venue=EXCLUDED.venue,
  collection_point=EXCLUDED.collection_point, collection_time=EXCLUDED.collection_time,
  capacity=EXCLUDED.capacity, price=EXCLUDED.price,
  image=EXCLUDED.image, description=EXCLUDED.description
`
