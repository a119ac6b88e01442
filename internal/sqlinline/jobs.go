package sqlinline

const QCreateVideoJobsTable = `--sql 3a7d4c1e-9b2f-4e61-8c0a-5f1d2e3b4a70
create table if not exists video_jobs (
  id          text primary key,
  status      text not null check (status in ('pending', 'completed', 'failed')),
  video_id    text,
  video_url   text,
  error       text,
  created_at  timestamptz not null default now(),
  updated_at  timestamptz not null default now()
);
`

const QInsertVideoJob = `--sql 8e2b6f14-0d3a-4c5b-9e7f-1a2b3c4d5e6f
insert into video_jobs (id, status, created_at, updated_at)
values ($1, $2, $3, $3);
`

const QSelectVideoJob = `--sql c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f
select id, status, coalesce(video_id, ''), coalesce(video_url, ''), coalesce(error, ''), created_at, updated_at
from video_jobs
where id = $1;
`

// QUpdateVideoJob only applies when the stored status still matches $2, so a
// concurrent writer that already reached a terminal state wins.
const QUpdateVideoJob = `--sql 5f6e7d8c-9b0a-4f1e-a2d3-c4b5a6978e1f
update video_jobs
set status = $3,
    video_id = nullif($4, ''),
    video_url = nullif($5, ''),
    error = nullif($6, ''),
    updated_at = $7
where id = $1 and status = $2;
`

const QListVideoJobs = `--sql 2b3c4d5e-6f70-4a81-9b2c-3d4e5f6a7b8c
select id, status, coalesce(video_id, ''), coalesce(video_url, ''), coalesce(error, ''), created_at, updated_at
from video_jobs
order by created_at asc;
`

const QCountVideoJobsByStatus = `--sql 9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d
select status, count(*)
from video_jobs
group by status;
`
