package store

// Redis key naming for job data. Job hashes keep the bare "job:" prefix so
// records stay interoperable with the other tools that inspect them; the
// recency index key is configured (JOBS_INDEX).

func jobKey(id string) string { return "job:" + id }
